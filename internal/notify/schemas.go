package notify

const createSubscriptionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["accountId", "eventType"],
  "properties": {
    "accountId": {"type": "string", "minLength": 1, "maxLength": 255},
    "eventType": {"type": "string", "enum": ["BALANCE_UPDATE", "ACCOUNT_CREATED", "ACCOUNT_DELETED"]}
  }
}`
