// Package signing implements the Xaman-style remote signing-wallet
// adapter: it creates sign-requests for unsigned transactions and reads
// back their status. It never holds signing keys.
package signing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Mode selects how the adapter talks to the wallet.
type Mode string

const (
	ModeStub Mode = "stub"
	ModeAPI  Mode = "api"
)

// xamanNamespace is the fixed UUID namespace used to derive deterministic
// stub payload IDs via UUIDv5(namespace, "reference:"+reference+":"+canonicalTx).
var xamanNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

var ErrInvalidAPIResponse = errors.New("xaman_api_invalid_response")

// Adapter is the signing-payload client used by both escrow and payout
// preparation flows.
type Adapter struct {
	Mode       Mode
	APIBaseURL string
	APIKey     string
	APISecret  string
	httpClient *http.Client
}

// NewAdapter constructs an Adapter. timeout is the outbound HTTP timeout
// used only in api mode.
func NewAdapter(mode Mode, apiBaseURL, apiKey, apiSecret string, timeout time.Duration) *Adapter {
	return &Adapter{
		Mode:       mode,
		APIBaseURL: apiBaseURL,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateSignRequest creates a sign-request for an unsigned transaction,
// keyed by a stable reference (e.g. "<bout_id>:<escrow_kind>:<op>").
func (a *Adapter) CreateSignRequest(reference string, unsignedTx map[string]any) (*SignRequest, error) {
	switch a.Mode {
	case ModeAPI:
		return a.createAPI(reference, unsignedTx)
	default:
		return a.createStub(reference, unsignedTx)
	}
}

func (a *Adapter) createStub(reference string, unsignedTx map[string]any) (*SignRequest, error) {
	canonical, err := canonicalJSON(unsignedTx)
	if err != nil {
		return nil, err
	}
	payloadID := uuid.NewSHA1(xamanNamespace, []byte("reference:"+reference+":"+string(canonical))).String()
	return &SignRequest{
		PayloadID:    payloadID,
		DeepLink:     fmt.Sprintf("xumm://sign/%s", payloadID),
		QRPNG:        fmt.Sprintf("https://stub.local/qr/%s.png", payloadID),
		WebsocketURL: fmt.Sprintf("wss://stub.local/payload/%s", payloadID),
	}, nil
}

type apiCreateResponse struct {
	UUID string `json:"uuid"`
	Next struct {
		Always string `json:"always"`
	} `json:"next"`
	Refs struct {
		QRPNG           string `json:"qr_png"`
		WebsocketStatus string `json:"websocket_status"`
	} `json:"refs"`
}

func (a *Adapter) createAPI(reference string, unsignedTx map[string]any) (*SignRequest, error) {
	body, err := json.Marshal(map[string]any{
		"txjson":    unsignedTx,
		"reference": reference,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, a.APIBaseURL+"/payload", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", a.APIKey)
	req.Header.Set("X-API-Secret", a.APISecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xaman_api_unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xaman_api_unreachable: %w", err)
	}

	var parsed apiCreateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, ErrInvalidAPIResponse
	}
	if parsed.UUID == "" || parsed.Next.Always == "" || parsed.Refs.QRPNG == "" {
		return nil, ErrInvalidAPIResponse
	}

	return &SignRequest{
		PayloadID:    parsed.UUID,
		DeepLink:     parsed.Next.Always,
		QRPNG:        parsed.Refs.QRPNG,
		WebsocketURL: parsed.Refs.WebsocketStatus,
	}, nil
}

// FetchStatus reads back the current status of a previously created
// sign-request.
func (a *Adapter) FetchStatus(payloadID string) (*PayloadStatusResult, error) {
	switch a.Mode {
	case ModeAPI:
		return a.fetchStatusAPI(payloadID)
	default:
		return a.fetchStatusStub(payloadID)
	}
}

// fetchStatusStub always reports OPEN: without a real wallet, a stub
// payload never self-transitions. Callers observe terminal states only
// through the reconcile endpoint's observed_status override.
func (a *Adapter) fetchStatusStub(payloadID string) (*PayloadStatusResult, error) {
	return &PayloadStatusResult{Status: StatusOpen}, nil
}

type apiStatusResponse struct {
	Meta struct {
		Signed    bool `json:"signed"`
		Cancelled bool `json:"cancelled"`
		Expired   bool `json:"expired"`
		Resolved  bool `json:"resolved"`
	} `json:"meta"`
	Response struct {
		TxID string `json:"txid"`
	} `json:"response"`
}

func (a *Adapter) fetchStatusAPI(payloadID string) (*PayloadStatusResult, error) {
	req, err := http.NewRequest(http.MethodGet, a.APIBaseURL+"/payload/"+payloadID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", a.APIKey)
	req.Header.Set("X-API-Secret", a.APISecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xaman_api_unreachable: %w", err)
	}
	defer resp.Body.Close()

	var parsed apiStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ErrInvalidAPIResponse
	}

	status := normalizeFlags(remoteFlags{
		Signed:    parsed.Meta.Signed,
		Cancelled: parsed.Meta.Cancelled,
		Expired:   parsed.Meta.Expired,
		Resolved:  parsed.Meta.Resolved,
	})
	return &PayloadStatusResult{Status: status, TxHash: parsed.Response.TxID}, nil
}

// canonicalJSON serializes v with sorted keys and compact separators, the
// same key order and separators as the idempotency hash; unlike that hash,
// it leaves non-ASCII runes unescaped.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
