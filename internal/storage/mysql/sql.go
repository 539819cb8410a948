package mysql

const resourceColumns = `id, kind, name, address, city, district, state, lat, lng, phone,
  emergency_phone, subtype, is_24x7, description, stars, website, source`

const upsertResourcesPrefix = "INSERT INTO resources\n  (" + resourceColumns + ")\nVALUES "

const upsertResourcesOnDup = `
ON DUPLICATE KEY UPDATE
  kind            = VALUES(kind),
  name            = VALUES(name),
  address         = VALUES(address),
  city            = COALESCE(VALUES(city), city),
  district        = COALESCE(VALUES(district), district),
  state           = VALUES(state),
  lat             = VALUES(lat),
  lng             = VALUES(lng),
  phone           = VALUES(phone),
  emergency_phone = VALUES(emergency_phone),
  subtype         = VALUES(subtype),
  is_24x7         = VALUES(is_24x7),
  description     = VALUES(description),
  stars           = VALUES(stars),
  website         = VALUES(website),
  source          = VALUES(source),
  updated_at      = CURRENT_TIMESTAMP
`

const listResourcesSQL = "SELECT " + resourceColumns + "\nFROM resources\nWHERE kind = ?"

// Bounding-box narrowing; exact radius filtering happens in the caller.
const withinBoundsSQL = "\n  AND lat BETWEEN ? AND ?\n  AND lng BETWEEN ? AND ?"

const countResourcesSQL = `SELECT COUNT(*) FROM resources WHERE kind = ?`

const insertMissSQL = `
INSERT INTO resource_misses (region, kind, status, reason)
VALUES (?, ?, ?, ?)
`

const insertAlertSQL = `
INSERT INTO sos_alerts
  (id, user_id, lat, lng, status, emergency_contacts, police, activated_at, resolved_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const resolveAlertSQL = `UPDATE sos_alerts SET status = 'resolved', resolved_at = ? WHERE id = ?`

const alertColumns = `id, user_id, lat, lng, status, emergency_contacts, police, activated_at, resolved_at`

const getAlertSQL = "SELECT " + alertColumns + " FROM sos_alerts WHERE id = ?"

const listAlertsSQL = "SELECT " + alertColumns + `
FROM sos_alerts
WHERE user_id = ?
ORDER BY activated_at DESC, id DESC
LIMIT ?`

const countAlertsSQL = `SELECT COUNT(*), COALESCE(SUM(status = 'resolved'), 0) FROM sos_alerts`

const insertUserSQL = `
INSERT INTO users (id, name, email, phone, password_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const userColumns = `id, name, email, phone, password_hash, created_at`

const getUserSQL = "SELECT " + userColumns + " FROM users WHERE id = ?"

const getUserByEmailSQL = "SELECT " + userColumns + " FROM users WHERE email = ?"

const countUsersSQL = `SELECT COUNT(*) FROM users`

const insertContactSQL = `
INSERT INTO emergency_contacts (id, user_id, name, phone, relationship, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const listContactsSQL = `
SELECT id, user_id, name, phone, relationship, created_at
FROM emergency_contacts
WHERE user_id = ?
ORDER BY created_at, id
`

const insertMessageSQL = `
INSERT INTO chat_messages (id, conversation_id, user_id, message, sender, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const messageColumns = `id, conversation_id, user_id, message, sender, created_at`

const listConversationSQL = "SELECT " + messageColumns + `
FROM chat_messages
WHERE conversation_id = ?
ORDER BY seq`

// Newest N, returned oldest first.
const lastConversationSQL = "SELECT " + messageColumns + `
FROM (
  SELECT ` + messageColumns + `, seq
  FROM chat_messages
  WHERE conversation_id = ?
  ORDER BY seq DESC
  LIMIT ?
) t
ORDER BY seq`

const insertLocationSQL = `
INSERT INTO location_points (id, user_id, lat, lng, accuracy, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const latestLocationSQL = `
SELECT id, user_id, lat, lng, accuracy, created_at
FROM location_points
WHERE user_id = ?
ORDER BY seq DESC
LIMIT 1
`

const locationHistorySQL = `
SELECT id, user_id, lat, lng, accuracy, created_at
FROM location_points
WHERE user_id = ?
ORDER BY seq DESC
LIMIT ?
`

const insertPostSQL = `
INSERT INTO community_posts (id, user_id, user_name, title, content, location_name, category, likes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const listPostsSQL = `
SELECT id, user_id, user_name, title, content, location_name, category, likes, created_at
FROM community_posts
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const likePostSQL = `UPDATE community_posts SET likes = likes + 1 WHERE id = ?`

const postLikesSQL = `SELECT likes FROM community_posts WHERE id = ?`

const insertFeedbackSQL = `
INSERT INTO feedback (id, user_id, rating, helpful_features, comments, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const listFeedbackSQL = `
SELECT id, user_id, rating, helpful_features, comments, created_at
FROM feedback
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const ratingStatsSQL = `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM feedback`
