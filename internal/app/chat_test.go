package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
	"safeher_travel/internal/shared"
)

func TestDemoReply(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Any good HOTEL near Egmore?", app.DemoHotelReply},
		{"where can I stay tonight", app.DemoHotelReply},
		{"Help me", app.DemoAlertReply},
		{"call the police", app.DemoAlertReply},
		{"Kavalan app?", app.DemoAlertReply},
		{"hello", app.DemoDefaultReply},
		{"I need help finding a hotel", app.DemoHotelReply},
		{"", app.DemoDefaultReply},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, app.DemoReply(c.in), c.in)
	}
}

func TestAnalyzeThreat(t *testing.T) {
	assert.Equal(t, domain.ThreatCritical, app.AnalyzeThreat("someone is FOLLOWING ME").Level)
	assert.Equal(t, domain.ThreatHigh, app.AnalyzeThreat("I feel unsafe").Level)
	assert.Equal(t, domain.ThreatMedium, app.AnalyzeThreat("a bit worried").Level)
	low := app.AnalyzeThreat("what's the weather")
	assert.Equal(t, domain.ThreatLow, low.Level)
	assert.Equal(t, []string{"provide_safety_tips", "offer_assistance"}, low.RecommendedActions)
}

func TestSendMessage_ModelReplyIsGroundedAndPersisted(t *testing.T) {
	repo := &fakeChatRepo{msgs: []domain.ChatMessage{
		{ConversationID: "c1", Message: "hi", Sender: domain.SenderUser},
		{ConversationID: "c1", Message: "hello!", Sender: domain.SenderAssistant},
	}}
	model := &fakeChatModel{reply: "Stay near Egmore station."}
	res := app.NewResourceService(&fakeResources{rs: shared.SeedResources}, nil, nil, 0)
	svc := app.NewChatService(repo, model, res)

	out, err := svc.SendMessage(context.Background(), app.ChatRequest{
		UserID: "u1", ConversationID: "c1", Message: "I feel unsafe", Location: &chennai,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", out.ConversationID)
	assert.Equal(t, "Stay near Egmore station.", out.Response)
	assert.Equal(t, domain.ThreatHigh, out.Threat.Level)

	require.Len(t, model.history, 2, "prior turns only")
	assert.Equal(t, domain.SenderAssistant, model.history[1].Role)
	assert.Contains(t, model.system, "Nearest Police Stations:")

	require.Len(t, repo.msgs, 4)
	assert.Equal(t, domain.SenderUser, repo.msgs[2].Sender)
	assert.Equal(t, "I feel unsafe", repo.msgs[2].Message)
	assert.Equal(t, domain.SenderAssistant, repo.msgs[3].Sender)
}

func TestSendMessage_FallsBackWhenModelFailsOrMissing(t *testing.T) {
	res := app.NewResourceService(&fakeResources{rs: shared.SeedResources}, nil, nil, 0)

	for name, model := range map[string]domain.ChatModel{
		"nil":   nil,
		"error": &fakeChatModel{err: errors.New("quota")},
	} {
		t.Run(name, func(t *testing.T) {
			repo := &fakeChatRepo{}
			svc := app.NewChatService(repo, model, res)
			out, err := svc.SendMessage(context.Background(), app.ChatRequest{Message: "nearest police station?", Location: &chennai})
			require.NoError(t, err)
			assert.NotEmpty(t, out.ConversationID)
			assert.Contains(t, out.Response, "Here are the nearest police stations")
			assert.Contains(t, out.Response, "Egmore Police Station")
			require.Len(t, repo.msgs, 2)
			assert.Equal(t, "anonymous", repo.msgs[0].UserID)
		})
	}
}

func TestFallbackReply_Branches(t *testing.T) {
	svc := app.NewChatService(&fakeChatRepo{}, nil, nil)
	ctx := context.Background()
	assert.Contains(t, svc.FallbackReply(ctx, "HELP someone is following", nil), "Call 100 (Police) or 112")
	assert.Contains(t, svc.FallbackReply(ctx, "police", nil), "Please share your current location")
	assert.Contains(t, svc.FallbackReply(ctx, "need a doctor", nil), "Call 108 for Ambulance")
	assert.Contains(t, svc.FallbackReply(ctx, "book a room", nil), "safe accommodations")
	assert.Contains(t, svc.FallbackReply(ctx, "any advice?", nil), "Essential Safety Tips")
	assert.Contains(t, svc.FallbackReply(ctx, "vanakkam", nil), "I'm SafeHer AI")
}

func TestSendMessage_RejectsBlank(t *testing.T) {
	svc := app.NewChatService(&fakeChatRepo{}, nil, nil)
	_, err := svc.SendMessage(context.Background(), app.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Conversation(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
