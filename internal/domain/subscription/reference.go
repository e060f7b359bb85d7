package subscription

import (
	"strconv"
	"strings"
	"time"

	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
)

const referencePrefix = "subscription_"

// CorrelationToken ties a provider checkout back to a user and plan. It is
// sent as the checkout's external reference and echoed in payment lookups:
//
//	subscription_<userId>_<planType>_<unixMillis>
//
// User ids may contain underscores, so the token is parsed from the right.
type CorrelationToken struct {
	UserID    string
	PlanType  vo.PlanType
	Timestamp int64
}

// NewCorrelationToken builds the token for a checkout created at createdAt.
func NewCorrelationToken(userID string, planType vo.PlanType, createdAt time.Time) CorrelationToken {
	return CorrelationToken{
		UserID:    userID,
		PlanType:  planType,
		Timestamp: createdAt.UnixMilli(),
	}
}

func (t CorrelationToken) String() string {
	return referencePrefix + t.UserID + "_" + t.PlanType.String() + "_" + strconv.FormatInt(t.Timestamp, 10)
}

// ParseCorrelationToken parses an external reference. Every failure wraps
// ErrInvalidReference.
func ParseCorrelationToken(raw string) (CorrelationToken, error) {
	if !strings.HasPrefix(raw, referencePrefix) {
		return CorrelationToken{}, errInvalidReference(raw, "missing subscription_ prefix")
	}
	rest := strings.TrimPrefix(raw, referencePrefix)

	tsSep := strings.LastIndex(rest, "_")
	if tsSep < 0 {
		return CorrelationToken{}, errInvalidReference(raw, "missing timestamp")
	}
	ts, err := strconv.ParseInt(rest[tsSep+1:], 10, 64)
	if err != nil || ts < 0 {
		return CorrelationToken{}, errInvalidReference(raw, "timestamp is not a number")
	}
	rest = rest[:tsSep]

	planSep := strings.LastIndex(rest, "_")
	if planSep < 0 {
		return CorrelationToken{}, errInvalidReference(raw, "missing plan type")
	}
	planType, err := vo.NewPlanType(rest[planSep+1:])
	if err != nil {
		return CorrelationToken{}, errInvalidReference(raw, err.Error())
	}

	userID := rest[:planSep]
	if userID == "" {
		return CorrelationToken{}, errInvalidReference(raw, "empty user id")
	}

	return CorrelationToken{UserID: userID, PlanType: planType, Timestamp: ts}, nil
}
