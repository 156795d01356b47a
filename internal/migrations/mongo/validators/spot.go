package validators

import "go.mongodb.org/mongo-driver/bson"

var SpotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"description",
			"type",
			"location",
			"price",
			"images",
			"status",
			"createdBy",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2000,
			},

			"type": bson.M{
				"enum": []string{"spot", "room", "office"},
			},

			"deskCount": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"city", "address"},
				"properties": bson.M{
					"city": bson.M{
						"bsonType":  "string",
						"minLength": 1,
						"maxLength": 100,
					},
					"address": bson.M{
						"bsonType":  "string",
						"minLength": 1,
						"maxLength": 200,
					},
				},
			},

			"amenities": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"enum": []string{
						"Wifi",
						"Parking",
						"Coffee",
						"Lift",
						"Phonebox",
						"Meeting Room",
						"Kitchen",
					},
				},
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"images": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items":    bson.M{"bsonType": "string"},
			},

			"status": bson.M{
				"enum": []string{"active", "inactive"},
			},

			"blockedDates": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"startDate", "endDate"},
					"properties": bson.M{
						"startDate": bson.M{"bsonType": "date"},
						"endDate":   bson.M{"bsonType": "date"},
					},
				},
			},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"createdBy": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
