package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignatureAcceptsValid(t *testing.T) {
	secret := "test-key-secret"
	orderID := "order_N8XgkDEgRs0wGN"
	paymentID := "pay_N8XhB2x9LZcyWq"

	signature := sign(orderID, paymentID, secret)
	if !VerifyPaymentSignature(orderID, paymentID, signature, secret) {
		t.Fatal("expected a correctly signed payload to verify")
	}
}

func TestVerifyPaymentSignatureRejectsTampering(t *testing.T) {
	secret := "test-key-secret"
	orderID := "order_N8XgkDEgRs0wGN"
	paymentID := "pay_N8XhB2x9LZcyWq"
	signature := sign(orderID, paymentID, secret)

	cases := map[string][4]string{
		"altered order id":   {"order_other", paymentID, signature, secret},
		"altered payment id": {orderID, "pay_other", signature, secret},
		"altered signature":  {orderID, paymentID, sign(orderID, paymentID, "wrong-secret"), secret},
		"truncated digest":   {orderID, paymentID, signature[:len(signature)-2], secret},
		"wrong secret":       {orderID, paymentID, signature, "another-secret"},
	}
	for name, c := range cases {
		if VerifyPaymentSignature(c[0], c[1], c[2], c[3]) {
			t.Fatalf("%s: expected verification to fail", name)
		}
	}
}

func TestVerifyPaymentSignatureRejectsEmptyInputs(t *testing.T) {
	secret := "test-key-secret"
	signature := sign("order_1", "pay_1", secret)

	if VerifyPaymentSignature("", "pay_1", signature, secret) {
		t.Fatal("empty order id must not verify")
	}
	if VerifyPaymentSignature("order_1", "", signature, secret) {
		t.Fatal("empty payment id must not verify")
	}
	if VerifyPaymentSignature("order_1", "pay_1", "", secret) {
		t.Fatal("empty signature must not verify")
	}
	if VerifyPaymentSignature("order_1", "pay_1", signature, "") {
		t.Fatal("empty secret must not verify")
	}
}
