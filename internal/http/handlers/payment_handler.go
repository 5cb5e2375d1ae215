package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
)

type PaymentHandler struct {
	Settlements *services.SettlementService
}

// POST /create-payment-intent
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var in services.IntentInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	key, err := idempotencyKey(c)
	if err != nil {
		return err
	}
	intent, err := h.Settlements.CreateIntent(c.UserContext(), callerEmail(c), in, key)
	if err != nil {
		return err
	}
	applog.Info(c, "payment.intent.create", map[string]any{"intent_id": intent.ID, "booking_id": in.BookingID})
	return c.JSON(fiber.Map{"clientSecret": intent.ClientSecret})
}

// POST /payments
func (h *PaymentHandler) Settle(c *fiber.Ctx) error {
	var in services.SettleInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	key, err := idempotencyKey(c)
	if err != nil {
		return err
	}
	res, err := h.Settlements.Settle(c.UserContext(), callerEmail(c), key, in)
	if err != nil {
		return err
	}
	applog.Audit(c, "payment.settle", map[string]any{
		"settlement_id": res.Settlement.ID,
		"booking_id":    res.Settlement.BookingID,
		"replayed":      res.Replayed,
	})
	return c.JSON(res)
}
