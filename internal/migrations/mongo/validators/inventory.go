package validators

import "go.mongodb.org/mongo-driver/bson"

var InventoryItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"expected_qty",
			"batch_id",
			"source_sheet",
			"row_num",
			"imported_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"location": bson.M{
				"bsonType":  "string",
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
			},

			"batch_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"source_sheet": bson.M{
				"bsonType": "string",
			},

			"row_num": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"imported_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ColumnMappingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"sheet_name",
			"header_row",
			"expected_col",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"sheet_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"header_row": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"expected_col": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"location_col": bson.M{
				"bsonType": "string",
			},

			"pallet_col": bson.M{
				"bsonType": "string",
			},

			"sku_col": bson.M{
				"bsonType": "string",
			},

			"lot_col": bson.M{
				"bsonType": "string",
			},
		},
	},
}
