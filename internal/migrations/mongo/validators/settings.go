package validators

import "go.mongodb.org/mongo-driver/bson"

var UserSettingsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"language",
			"sound_on",
			"vibration_on",
			"timezone",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"language": bson.M{
				"bsonType": "string",
				"enum": []string{
					"en",
					"es",
				},
			},

			"sound_on": bson.M{
				"bsonType": "bool",
			},

			"vibration_on": bson.M{
				"bsonType": "bool",
			},

			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
