package validators

import "go.mongodb.org/mongo-driver/bson"

var AssignmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"assigned_to",
			"location",
			"expected_qty",
			"status",
			"locked_until",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"assigned_to": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"pallet_id": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"sku": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"lot": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"expected_qty": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"assigned",
					"in_progress",
					"completed",
					"cancelled",
				},
			},

			"locked_until": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var AssignmentLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"assigned_to",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"assigned_to": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
