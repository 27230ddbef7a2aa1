package outbox

const signupRecordedSchema = `{
  "type": "object",
  "title": "SignupRecorded",
  "properties": {
    "signup_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "activity": {"type": "string"},
    "email": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["signup_id", "activity_id", "activity", "email", "occurred_at"],
  "additionalProperties": false
}`

const signupRemovedSchema = `{
  "type": "object",
  "title": "SignupRemoved",
  "properties": {
    "activity_id": {"type": "integer"},
    "activity": {"type": "string"},
    "email": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "activity", "email", "occurred_at"],
  "additionalProperties": false
}`
