package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/domain"
)

const chatHistoryTurns = 20

const chatSystemPrompt = `You are SafeHer AI, a compassionate and intelligent safety assistant for women travelers in Tamil Nadu, India. Your mission is to keep women safe through immediate, practical, and culturally-aware guidance.

Core responsibilities:
1. Assess danger levels and provide immediate safety guidance
2. Connect users to real emergency services (police, hospitals, safe zones)
3. Offer emotional support during distressing situations
4. Provide location-specific safety advice for Tamil Nadu
5. Help users make safe travel decisions

Emergency protocol:
- If the user indicates immediate danger, tell them to call 100 (Police) or 112 (Emergency) now
- Advise finding a well-lit, public area with people
- Direct them to use the SOS button in the app
- Provide specific nearby police station and hospital information when available

Key emergency numbers: Police 100, National Emergency 112, Ambulance 108, Women Helpline 1091, Child Helpline 1098.

Be warm, empathetic and non-judgmental. Never minimize safety concerns, never blame the user, and give clear actionable steps.
When real-time data about nearby emergency services is provided, use it.

Current date and time: %s

%s`

// Canned replies of the offline demo chat.
const (
	DemoHotelReply   = "I can suggest some highly-rated safe hotels nearby in Tamil Nadu. Please check the 'Safe Hotels' section or would you like me to list them here?"
	DemoAlertReply   = "I'm alerting your emergency contacts and notifying the nearest TN Police station now. Stay in a well-lit area. I've highlighted the nearest resources on your dashboard."
	DemoDefaultReply = "I understand. I'm monitoring your safety. Would you like me to share your location with your contacts or find the nearest safe haven in Tamil Nadu?"
)

// DemoReply is the case-insensitive substring matcher of the demo chat.
func DemoReply(msg string) string {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "hotel") || strings.Contains(m, "stay"):
		return DemoHotelReply
	case strings.Contains(m, "help") || strings.Contains(m, "police") || strings.Contains(m, "kavalan"):
		return DemoAlertReply
	default:
		return DemoDefaultReply
	}
}

var threatRules = []struct {
	level    domain.ThreatLevel
	keywords []string
	actions  []string
}{
	{domain.ThreatCritical, []string{"attack", "following me", "grabbed", "touched", "assault", "kidnap"},
		[]string{"call_police_immediately", "activate_sos", "move_to_public_area"}},
	{domain.ThreatHigh, []string{"scared", "unsafe", "threatening", "harassment", "stalking", "danger"},
		[]string{"move_to_safe_location", "contact_emergency_contacts", "prepare_to_call_police"}},
	{domain.ThreatMedium, []string{"uncomfortable", "suspicious", "worried", "concerned", "alone"},
		[]string{"stay_alert", "move_to_populated_area", "share_location"}},
}

func AnalyzeThreat(msg string) domain.ThreatAssessment {
	m := strings.ToLower(msg)
	for _, r := range threatRules {
		if containsAny(m, r.keywords...) {
			return domain.ThreatAssessment{Level: r.level, RecommendedActions: r.actions}
		}
	}
	return domain.ThreatAssessment{Level: domain.ThreatLow, RecommendedActions: []string{"provide_safety_tips", "offer_assistance"}}
}

var SafetyTips = []domain.SafetyTip{
	{ID: 1, Title: "Share Your Location", Description: "Always share your live location with trusted contacts when traveling", Category: "prevention"},
	{ID: 2, Title: "Trust Your Instincts", Description: "If a situation feels unsafe, remove yourself immediately", Category: "awareness"},
	{ID: 3, Title: "Keep Phone Charged", Description: "Ensure your phone is always charged when traveling", Category: "preparation"},
	{ID: 4, Title: "Avoid Isolated Areas", Description: "Stay in well-lit, populated areas especially at night", Category: "prevention"},
	{ID: 5, Title: "Use Verified Transport", Description: "Only use registered and verified transportation services", Category: "transport"},
}

type ChatRequest struct {
	UserID         string
	ConversationID string
	Message        string
	Location       *domain.Coords
}

type ChatReply struct {
	ConversationID string                  `json:"conversation_id"`
	Response       string                  `json:"response"`
	Timestamp      time.Time               `json:"timestamp"`
	Threat         domain.ThreatAssessment `json:"threat"`
}

// chatResources grounds replies in stored resources.
type chatResources interface {
	NearbyFinder
	ContextSummary(ctx context.Context, at *domain.Coords) string
}

type ChatService struct {
	repo      domain.ChatRepository
	model     domain.ChatModel
	resources chatResources
	now       func() time.Time
}

// NewChatService accepts a nil model; replies then come from the keyword responder.
func NewChatService(repo domain.ChatRepository, model domain.ChatModel, res chatResources) *ChatService {
	return &ChatService{repo: repo, model: model, resources: res, now: time.Now}
}

func (s *ChatService) SendMessage(ctx context.Context, in ChatRequest) (ChatReply, error) {
	if strings.TrimSpace(in.Message) == "" {
		return ChatReply{}, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if in.ConversationID == "" {
		in.ConversationID = uuid.NewString()
	}
	if in.UserID == "" {
		in.UserID = "anonymous"
	}
	if in.Location != nil && !in.Location.Valid() {
		in.Location = nil
	}

	history, err := s.repo.ListConversation(ctx, in.ConversationID, chatHistoryTurns)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("chat history unavailable")
		history = nil
	}

	if err := s.repo.SaveMessage(ctx, domain.ChatMessage{
		ID: uuid.NewString(), ConversationID: in.ConversationID, UserID: in.UserID,
		Message: in.Message, Sender: domain.SenderUser, CreatedAt: s.now().UTC(),
	}); err != nil {
		return ChatReply{}, fmt.Errorf("save message: %w", err)
	}

	reply := s.reply(ctx, in, history)
	at := s.now().UTC()
	if err := s.repo.SaveMessage(ctx, domain.ChatMessage{
		ID: uuid.NewString(), ConversationID: in.ConversationID, UserID: in.UserID,
		Message: reply, Sender: domain.SenderAssistant, CreatedAt: at,
	}); err != nil {
		return ChatReply{}, fmt.Errorf("save reply: %w", err)
	}
	return ChatReply{ConversationID: in.ConversationID, Response: reply, Timestamp: at, Threat: AnalyzeThreat(in.Message)}, nil
}

func (s *ChatService) reply(ctx context.Context, in ChatRequest, history []domain.ChatMessage) string {
	if s.model == nil {
		return s.FallbackReply(ctx, in.Message, in.Location)
	}
	turns := make([]domain.ChatTurn, 0, len(history))
	for _, m := range history {
		turns = append(turns, domain.ChatTurn{Role: m.Sender, Text: m.Message})
	}
	var grounding string
	if s.resources != nil {
		grounding = s.resources.ContextSummary(ctx, in.Location)
	}
	system := fmt.Sprintf(chatSystemPrompt, s.now().Format("January 02, 2006 at 03:04 PM"), grounding)

	out, err := s.model.Reply(ctx, system, turns, in.Message)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("chat model failed; using keyword reply")
		return s.FallbackReply(ctx, in.Message, in.Location)
	}
	return out
}

// FallbackReply answers by keyword when no model is available.
func (s *ChatService) FallbackReply(ctx context.Context, msg string, at *domain.Coords) string {
	m := strings.ToLower(msg)
	switch {
	case containsAny(m, "danger", "unsafe", "scared", "help", "emergency", "sos", "threat", "following", "harassment", "attack", "fear"):
		var b strings.Builder
		b.WriteString("I'm here to help you immediately.\n\nIf you're in immediate danger:\n" +
			"1. Call 100 (Police) or 112 (National Emergency) NOW\n" +
			"2. Move to a well-lit, crowded area (shop, restaurant, hotel lobby)\n" +
			"3. Press the SOS button in the app to alert your contacts\n" +
			"4. Share your live location with trusted contacts\n")
		if list := s.nearbyText(ctx, domain.KindPolice, at); list != "" {
			b.WriteString("\nNearest Police Stations:\n" + list)
		}
		b.WriteString("\nPlease tell me more about your situation so I can help better. What's happening right now?")
		return b.String()

	case containsAny(m, "police", "station", "cop", "officer"):
		if list := s.nearbyText(ctx, domain.KindPolice, at); list != "" {
			return "Here are the nearest police stations to your location:\n\n" + list +
				"\nEmergency Numbers:\n- Police: 100\n- National Emergency: 112\n\nWould you like directions to any of these stations?"
		}
		return "I can help you find nearby police stations.\n\nEmergency Police Number: 100\nNational Emergency: 112\n\n" +
			"Please share your current location, and I'll find the nearest police stations with their contact numbers and directions."

	case containsAny(m, "hospital", "medical", "doctor", "ambulance", "injured", "sick"):
		var b strings.Builder
		b.WriteString("Medical Emergency:\nCall 108 for Ambulance immediately\n\n")
		if list := s.nearbyText(ctx, domain.KindHospital, at); list != "" {
			b.WriteString("Nearest Hospitals:\n" + list)
		} else {
			b.WriteString("Share your location to find the nearest hospitals.\n")
		}
		b.WriteString("\nIs this a medical emergency? Do you need an ambulance?")
		return b.String()

	case containsAny(m, "hotel", "stay", "accommodation", "lodge", "room"):
		return "I can help you find safe accommodations!\n\nSafety Tips for Hotels:\n" +
			"- Check online reviews, especially from female travelers\n" +
			"- Choose well-lit areas with 24/7 security\n" +
			"- Prefer hotels near police stations or main roads\n" +
			"- Verify the hotel on Google Maps before booking\n" +
			"- Share hotel details with family/friends\n\n" +
			"Share your location, and I'll suggest safe, verified hotels nearby with good reviews."

	case containsAny(m, "tip", "advice", "safe", "how to"):
		return "Essential Safety Tips for Women Travelers in Tamil Nadu:\n\n" +
			"Before Travel:\n- Share your itinerary with trusted contacts\n- Keep phone charged, have power bank\n" +
			"- Save emergency numbers: 100 (Police), 108 (Ambulance), 1091 (Women Helpline)\n\n" +
			"During Travel:\n- Use registered transport (Uber, Ola, official taxis)\n- Share live location with family/friends\n" +
			"- Stay in well-lit, populated areas\n- Trust your instincts, if uncomfortable, leave\n\n" +
			"At Night:\n- Avoid isolated areas\n- Stay in groups when possible\n- Keep valuables secure\n\n" +
			"In Emergency:\n- Call 100 or 112 immediately\n- Go to nearest public place\n- Use SOS feature in app\n\n" +
			"What specific situation would you like safety advice for?"

	default:
		return "Hello! I'm SafeHer AI, your personal safety assistant for traveling in Tamil Nadu.\n\n" +
			"I can help you with:\n- Emergency guidance and immediate help\n- Finding nearby police stations and hospitals\n" +
			"- Safe accommodation recommendations\n- Safety tips for traveling in Tamil Nadu\n" +
			"- Support and advice for any safety concerns\n\nHow can I help keep you safe today?"
	}
}

func (s *ChatService) nearbyText(ctx context.Context, kind domain.ResourceKind, at *domain.Coords) string {
	if s.resources == nil || at == nil {
		return ""
	}
	q := domain.NearbyQuery{Kind: kind, Lat: at.Lat, Lng: at.Lng, Limit: 3, Only24x7: kind == domain.KindHospital}
	res, err := s.resources.Nearby(ctx, q)
	if err != nil || len(res.Items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range res.Items {
		phone := r.Phone
		if kind == domain.KindHospital {
			phone = r.EmergencyPhone
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   Phone: %s\n   %.2f km away\n", i+1, r.Name, r.Address, orNA(phone), r.DistanceKm)
	}
	return b.String()
}

func (s *ChatService) Conversation(ctx context.Context, id string) ([]domain.ChatMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	return s.repo.ListConversation(ctx, id, 0)
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
