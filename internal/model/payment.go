package model

// PaymentBucket is a canonical payment-method key. Raw provider labels are
// normalized into buckets via the configured synonym table; labels that match
// nothing land in PaymentOther so the bucket totals always reconcile to the
// grand total.
type PaymentBucket string

// Payment bucket constants.
const (
	PaymentCash      PaymentBucket = "Cash"
	PaymentQR        PaymentBucket = "QR"
	PaymentGrab      PaymentBucket = "Grab"
	PaymentFoodPanda PaymentBucket = "FoodPanda"
	PaymentAroiDee   PaymentBucket = "AroiDee"
	PaymentCard      PaymentBucket = "Card"
	PaymentOther     PaymentBucket = "Other"
)

// PaymentBucketOrder fixes the iteration order for rendering and exports.
var PaymentBucketOrder = []PaymentBucket{
	PaymentCash,
	PaymentQR,
	PaymentGrab,
	PaymentFoodPanda,
	PaymentAroiDee,
	PaymentCard,
	PaymentOther,
}
