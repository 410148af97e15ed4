package validators

import "go.mongodb.org/mongo-driver/bson"

var TenantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"name",
			"channel_number",
			"working_hours",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"channel_number": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},

			"phone_number_id": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+$`,
			},

			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"working_hours": bson.M{
				"bsonType": "object",
				"required": []string{"work_days", "open_time", "close_time", "max_future_days"},
				"properties": bson.M{
					"work_days": bson.M{
						"bsonType":    "array",
						"minItems":    1,
						"maxItems":    7,
						"uniqueItems": true,
						"items": bson.M{
							"bsonType": "int",
							"minimum":  0,
							"maximum":  6,
						},
					},
					"open_time": bson.M{
						"bsonType": "string",
						"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
					},
					"close_time": bson.M{
						"bsonType": "string",
						"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
					},
					"max_future_days": bson.M{
						"bsonType": "int",
						"minimum":  1,
						"maximum":  90,
					},
					"turns_per_day": bson.M{
						"bsonType": "array",
						"minItems": 7,
						"maxItems": 7,
						"items": bson.M{
							"bsonType": "int",
							"minimum":  0,
							"maximum":  3,
						},
					},
					"holidays": bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "string",
							"pattern":  `^\d{4}-\d{2}-\d{2}$`,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
