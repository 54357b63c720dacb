package aggregate

import (
	"strings"

	"github.com/lastorders/closeout/internal/model"
)

// PaymentSynonym maps a provider label fragment to a canonical bucket.
type PaymentSynonym struct {
	Needle string
	Bucket model.PaymentBucket
}

// DefaultPaymentSynonyms is the ordered label normalization table, matched
// case-insensitively by substring. Delivery partners come before the generic
// card rule so "GrabPay Card" lands in Grab.
var DefaultPaymentSynonyms = []PaymentSynonym{
	{Needle: "grab", Bucket: model.PaymentGrab},
	{Needle: "foodpanda", Bucket: model.PaymentFoodPanda},
	{Needle: "panda", Bucket: model.PaymentFoodPanda},
	{Needle: "aroi", Bucket: model.PaymentAroiDee},
	{Needle: "promptpay", Bucket: model.PaymentQR},
	{Needle: "qr", Bucket: model.PaymentQR},
	{Needle: "scan", Bucket: model.PaymentQR},
	{Needle: "cash", Bucket: model.PaymentCash},
	{Needle: "card", Bucket: model.PaymentCard},
	{Needle: "credit", Bucket: model.PaymentCard},
	{Needle: "visa", Bucket: model.PaymentCard},
	{Needle: "master", Bucket: model.PaymentCard},
}

// PaymentNormalizer resolves raw payment labels to canonical buckets.
type PaymentNormalizer struct {
	synonyms []PaymentSynonym
}

// NewPaymentNormalizer creates a normalizer. A nil or empty table falls back
// to DefaultPaymentSynonyms.
func NewPaymentNormalizer(synonyms []PaymentSynonym) *PaymentNormalizer {
	if len(synonyms) == 0 {
		synonyms = DefaultPaymentSynonyms
	}
	return &PaymentNormalizer{synonyms: synonyms}
}

// Normalize maps a provider label to its bucket. Unmatched labels land in
// PaymentOther rather than being dropped, so bucket totals always reconcile
// to the grand total.
func (n *PaymentNormalizer) Normalize(label string) model.PaymentBucket {
	lower := strings.ToLower(strings.TrimSpace(label))
	for _, syn := range n.synonyms {
		if strings.Contains(lower, strings.ToLower(syn.Needle)) {
			return syn.Bucket
		}
	}
	return model.PaymentOther
}
