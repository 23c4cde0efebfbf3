package twin

const createAccountSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["type", "identifier", "balance"],
  "properties": {
    "type": {"type": "string", "minLength": 1, "maxLength": 100},
    "identifier": {"type": "string", "minLength": 1, "maxLength": 255},
    "balance": {
      "type": "object",
      "additionalProperties": false,
      "required": ["value", "currencyCode"],
      "properties": {
        "value": {"type": ["string", "number"]},
        "currencyCode": {"type": "string", "pattern": "^[A-Z]{3}$"}
      }
    }
  }
}`

const applyTransactionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["transferId", "accountId", "amount", "valuationTimestamp", "purpose", "type"],
  "properties": {
    "id": {"type": "string", "format": "uuid"},
    "transferId": {"type": "string", "minLength": 1},
    "accountId": {"type": "string", "minLength": 1},
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
    "purpose": {"type": "string"},
    "type": {"type": "string", "enum": ["CREDIT", "DEBIT"]},
    "sourceAccount": {"type": "string"},
    "destinationAccount": {"type": "string"}
  }
}`
