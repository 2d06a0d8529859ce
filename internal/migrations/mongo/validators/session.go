package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "role", "created_at", "expires_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"role": bson.M{
				"enum": []string{"customer", "employee"},
			},

			"customer": bson.M{
				"bsonType": []string{"object", "null"},
			},

			"employee": bson.M{
				"bsonType": []string{"object", "null"},
			},

			"checkout": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"id":   bson.M{"bsonType": "string"},
					"step": bson.M{"bsonType": "string"},
				},
			},

			"edit": bson.M{
				"bsonType": "object",
				"required": []string{"booking_id", "form"},
			},

			"created_at": bson.M{"bsonType": "date"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}
