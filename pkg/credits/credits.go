// Package credits is the thin client for the credit-ledger collaborator.
// The ledger itself lives in another service; the engine only checks and
// consumes.
package credits

import (
	"context"
	"fmt"
	"strconv"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/whttp"
)

// Kind names a billable unit.
const (
	KindSearch = "search"
	KindEnrich = "enrich"
)

// Ledger is the collaborator contract consumed by the engine.
type Ledger interface {
	// Check reports whether the user may spend amount credits of kind,
	// plus the remaining balance.
	Check(ctx context.Context, userID, kind string, amount int) (allowed bool, remaining int, err error)
	// Consume deducts credits and returns the new balance.
	Consume(ctx context.Context, userID, kind string, amount int) (newBalance int, err error)
}

// HTTPLedger talks to the ledger service.
type HTTPLedger struct {
	BaseURL string
	Token   string
	HTTP    *retryablehttp.Client
}

func NewHTTPLedger(baseURL, token string) *HTTPLedger {
	return &HTTPLedger{BaseURL: baseURL, Token: token, HTTP: whttp.NewClient()}
}

func (l *HTTPLedger) Check(ctx context.Context, userID, kind string, amount int) (bool, int, error) {
	body := fmt.Sprintf(`{"userId":%s,"kind":%s,"amount":%d}`,
		strconv.Quote(userID), strconv.Quote(kind), amount)
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    l.BaseURL + "/v1/credits/check",
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "Authorization", Value: "Bearer " + l.Token},
			{Name: "Content-Type", Value: "application/json"},
		},
	}, l.HTTP)
	if err != nil {
		return false, 0, err
	}
	if res.StatusCode != 200 {
		return false, 0, fmt.Errorf("credit check returned status %d", res.StatusCode)
	}
	return gjson.Get(res.BodyString, "allowed").Bool(),
		int(gjson.Get(res.BodyString, "remaining").Int()), nil
}

func (l *HTTPLedger) Consume(ctx context.Context, userID, kind string, amount int) (int, error) {
	body := fmt.Sprintf(`{"userId":%s,"kind":%s,"amount":%d}`,
		strconv.Quote(userID), strconv.Quote(kind), amount)
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    l.BaseURL + "/v1/credits/consume",
		Body:   body,
		Headers: []whttp.WHTTPHeader{
			{Name: "Authorization", Value: "Bearer " + l.Token},
			{Name: "Content-Type", Value: "application/json"},
		},
	}, l.HTTP)
	if err != nil {
		return 0, err
	}
	if res.StatusCode != 200 {
		return 0, fmt.Errorf("credit consume returned status %d", res.StatusCode)
	}
	return int(gjson.Get(res.BodyString, "newBalance").Int()), nil
}
