package gateway

const registerAccountSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["type", "identifier"],
  "properties": {
    "type": {"type": "string", "minLength": 1, "maxLength": 100},
    "identifier": {"type": "string", "minLength": 1, "maxLength": 255},
    "accountId": {"type": "string"}
  }
}`

const transferSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["sourceAccount", "targetAccount", "amount", "valuationTimestamp"],
  "properties": {
    "id": {"type": "string", "format": "uuid"},
    "sourceAccount": {"$ref": "#/$defs/accountRef"},
    "targetAccount": {"$ref": "#/$defs/accountRef"},
    "amount": {
      "type": "object",
      "additionalProperties": false,
      "required": ["value", "currencyCode"],
      "properties": {
        "value": {"type": ["string", "number"]},
        "currencyCode": {"type": "string", "pattern": "^[A-Z]{3}$"}
      }
    },
    "valuationTimestamp": {"type": "string", "minLength": 1},
    "purpose": {"type": "string"}
  },
  "$defs": {
    "accountRef": {
      "type": "object",
      "additionalProperties": false,
      "required": ["type", "identifier"],
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "identifier": {"type": "string", "minLength": 1},
        "accountId": {"type": "string"}
      }
    }
  }
}`
