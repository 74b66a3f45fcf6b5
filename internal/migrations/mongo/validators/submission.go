package validators

import "go.mongodb.org/mongo-driver/bson"

var CountSubmissionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"assignment_id",
			"counted_by",
			"location",
			"expected_qty",
			"counted_qty",
			"variance",
			"issue_type",
			"submitted_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"assignment_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"counted_by": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"expected_qty": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"counted_qty": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"variance": bson.M{
				"bsonType": "int",
			},

			"issue_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"none",
					"damaged",
					"missing_label",
					"wrong_location",
					"other",
				},
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"submitted_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
