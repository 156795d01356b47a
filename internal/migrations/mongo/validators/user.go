package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"firstName",
			"lastName",
			"email",
			"password",
			"roles",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"firstName": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"lastName": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
			},

			"password": bson.M{
				"bsonType": "string",
			},

			"roles": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"enum": []string{"guest", "host", "admin"},
				},
			},

			"profile": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"company": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"phoneNumber": bson.M{
						"bsonType":  "string",
						"maxLength": 20,
					},
					"position": bson.M{
						"bsonType":  "string",
						"maxLength": 100,
					},
					"linkedInUrl": bson.M{
						"bsonType": "string",
					},
				},
			},

			"createdSpots": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"bookings": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"favorites": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
