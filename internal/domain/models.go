package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type Category struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AdvertiseState is a product's promotion request. On the wire and in Mongo documents it is
// false, "pending" or true.
type AdvertiseState string

const (
	AdvertiseNone    AdvertiseState = ""
	AdvertisePending AdvertiseState = "pending"
	AdvertiseActive  AdvertiseState = "active"
)

func (a AdvertiseState) MarshalJSON() ([]byte, error) {
	switch a {
	case AdvertisePending:
		return []byte(`"pending"`), nil
	case AdvertiseActive:
		return []byte(`true`), nil
	default:
		return []byte(`false`), nil
	}
}

func (a *AdvertiseState) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `false`, `null`, `""`:
		*a = AdvertiseNone
	case `true`, `"active"`:
		*a = AdvertiseActive
	case `"pending"`:
		*a = AdvertisePending
	default:
		return fmt.Errorf("advertise: unexpected value %s", b)
	}
	return nil
}

func (a AdvertiseState) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch a {
	case AdvertisePending:
		return bson.MarshalValue(string(AdvertisePending))
	case AdvertiseActive:
		return bson.MarshalValue(true)
	default:
		return bson.MarshalValue(false)
	}
}

func (a *AdvertiseState) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Boolean:
		*a = AdvertiseNone
		if v.Boolean() {
			*a = AdvertiseActive
		}
	case bsontype.String:
		switch s := v.StringValue(); s {
		case "":
			*a = AdvertiseNone
		case "pending":
			*a = AdvertisePending
		case "active":
			*a = AdvertiseActive
		default:
			return fmt.Errorf("advertise: unexpected value %q", s)
		}
	case bsontype.Null, bsontype.Undefined:
		*a = AdvertiseNone
	default:
		return fmt.Errorf("advertise: unexpected bson type %s", t)
	}
	return nil
}

type Product struct {
	ID             string         `json:"_id" bson:"_id"`
	Name           string         `json:"name" bson:"name"`
	Image          string         `json:"image" bson:"image"`
	Description    string         `json:"description" bson:"description"`
	Category       string         `json:"category" bson:"category"`
	ResellPrice    float64        `json:"resellPrice" bson:"resellPrice"`
	OriginalPrice  float64        `json:"originalPrice" bson:"originalPrice"`
	Condition      string         `json:"condition" bson:"condition"`
	Location       string         `json:"location" bson:"location"`
	YearsOfUse     string         `json:"yearsOfUse" bson:"yearsOfUse"`
	SellerName     string         `json:"sellerName" bson:"sellerName"`
	SellerEmail    string         `json:"sellerEmail" bson:"sellerEmail"`
	DisplayListing bool           `json:"displayListing" bson:"displayListing"`
	VerifiedSeller bool           `json:"verifiedSeller" bson:"verifiedSeller"`
	Advertise      AdvertiseState `json:"advertise" bson:"advertise"`
	// SettlementID is the settlement that sold the product. Empty while it is for sale.
	SettlementID string    `json:"settlementId,omitempty" bson:"settlementId,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type Booking struct {
	ID           string    `json:"_id" bson:"_id"`
	BuyerEmail   string    `json:"buyerEmail" bson:"buyerEmail"`
	BuyerName    string    `json:"buyerName" bson:"buyerName"`
	SellerEmail  string    `json:"sellerEmail" bson:"sellerEmail"`
	ProductID    string    `json:"productId" bson:"productId"`
	ProductName  string    `json:"productName" bson:"productName"`
	Price        float64   `json:"price" bson:"price"`
	Phone        string    `json:"phone" bson:"phone"`
	Location     string    `json:"location" bson:"location"`
	Paid         bool      `json:"paid" bson:"paid"`
	SettlementID string    `json:"settlementId,omitempty" bson:"settlementId,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type WishlistEntry struct {
	ID         string    `json:"_id" bson:"_id"`
	ProductID  string    `json:"productId" bson:"productId"`
	BuyerEmail string    `json:"buyerEmail" bson:"buyerEmail"`
	Name       string    `json:"name" bson:"name"`
	Image      string    `json:"image" bson:"image"`
	Price      float64   `json:"price" bson:"price"`
	Wishlist   bool      `json:"wishlist" bson:"wishlist"`
	Paid       bool      `json:"paid" bson:"paid"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type Payment struct {
	ID            string    `json:"_id" bson:"_id"`
	BookingID     string    `json:"bookingId" bson:"bookingId"`
	ProductID     string    `json:"productId" bson:"productId"`
	BuyerEmail    string    `json:"buyerEmail" bson:"buyerEmail"`
	Amount        float64   `json:"amount" bson:"amount"`
	Currency      string    `json:"currency" bson:"currency"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

type SettlementState string

const (
	SettlementPending   SettlementState = "pending"
	SettlementFailed    SettlementState = "failed"
	SettlementRejected  SettlementState = "rejected"
	SettlementCompleted SettlementState = "completed"
)

func (s SettlementState) Valid() bool {
	switch s {
	case SettlementPending, SettlementFailed, SettlementRejected, SettlementCompleted:
		return true
	}
	return false
}

// SettlementStep is the last step a settlement finished. Steps run in the order declared.
// The product is taken off sale before the booking is marked paid, so a booking is only ever
// paid by the settlement that owns the product.
type SettlementStep string

const (
	StepNone            SettlementStep = ""
	StepPaymentRecorded SettlementStep = "payment_recorded"
	StepProductDelisted SettlementStep = "product_delisted"
	StepBookingPaid     SettlementStep = "booking_paid"
	StepWishlistPaid    SettlementStep = "wishlist_paid"
)

var stepOrder = map[SettlementStep]int{
	StepNone:            0,
	StepPaymentRecorded: 1,
	StepProductDelisted: 2,
	StepBookingPaid:     3,
	StepWishlistPaid:    4,
}

// Done reports whether step s has already been passed when the settlement sits at cur.
func (s SettlementStep) Done(cur SettlementStep) bool {
	return stepOrder[cur] >= stepOrder[s]
}

// Settlement is the durable record of one payment settlement, keyed by its idempotency key.
type Settlement struct {
	ID            string          `json:"_id" bson:"_id"`
	BookingID     string          `json:"bookingId" bson:"bookingId"`
	ProductID     string          `json:"productId" bson:"productId"`
	BuyerEmail    string          `json:"buyerEmail" bson:"buyerEmail"`
	Amount        float64         `json:"amount" bson:"amount"`
	Currency      string          `json:"currency" bson:"currency"`
	TransactionID string          `json:"transactionId" bson:"transactionId"`
	State         SettlementState `json:"state" bson:"state"`
	Step          SettlementStep  `json:"step" bson:"step"`
	Attempts      int             `json:"attempts" bson:"attempts"`
	Error         string          `json:"error,omitempty" bson:"error,omitempty"`
	// Reason is the error code a rejected settlement keeps answering with.
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BookingPaidEvent is published once a settlement completes.
type BookingPaidEvent struct {
	SettlementID  string    `json:"settlementId"`
	BookingID     string    `json:"bookingId"`
	ProductID     string    `json:"productId"`
	BuyerEmail    string    `json:"buyerEmail"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	PaidAt        time.Time `json:"paidAt"`
}

var (
	_ json.Marshaler        = AdvertiseNone
	_ bson.ValueMarshaler   = AdvertiseNone
	_ bson.ValueUnmarshaler = (*AdvertiseState)(nil)
)
