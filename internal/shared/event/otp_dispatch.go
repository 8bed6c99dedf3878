package event

const OtpDispatchDestination string = "otp_dispatch"
const OtpDispatchConsumerNotification string = "otp_dispatch_notification"

// OtpDispatchMessage carries a freshly issued OTP to the mail sender. Code is
// plaintext and must never be logged or persisted by consumers.
type OtpDispatchMessage struct {
	ChallengeID int64  `json:"challenge_id"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	Purpose     string `json:"purpose"`
	TTLSeconds  int64  `json:"ttl_seconds"`
}
