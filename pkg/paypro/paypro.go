// Package paypro fetches and verifies payment-protocol requests. A payment
// request fixes the destination outputs of a purchase; the package checks the
// server's content digest and ECC signature before the amounts are ever shown
// to the user, and keeps the two failure classes distinct so callers can tell
// a corrupted payload from a forged one.
package paypro

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/sony/gobreaker"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/circuitbreaker"
)

var (
	// ErrDigestMismatch means the response body does not hash to the digest
	// header: the payload was corrupted or tampered in transit.
	ErrDigestMismatch = errors.New(
		"payment request digest does not match response body",
	)
	// ErrSignatureInvalid means the digest signature does not verify under
	// the advertised identity key: the request is forged.
	ErrSignatureInvalid = errors.New("payment request signature is invalid")
	// ErrUntrustedIdentity ...
	ErrUntrustedIdentity = errors.New(
		"payment request signed by an untrusted identity",
	)
	// ErrUnsupportedSignatureType ...
	ErrUnsupportedSignatureType = errors.New(
		"unsupported payment request signature type",
	)
	// ErrRequestNotFound ...
	ErrRequestNotFound = errors.New("payment request not found")
	// ErrRequestExpired ...
	ErrRequestExpired = errors.New("payment request expired or invalid")
	// ErrBroadcastFailed ...
	ErrBroadcastFailed = errors.New(
		"payment submission failed on the receiver side",
	)
)

const (
	digestHeader        = "digest"
	signatureHeader     = "signature"
	identityHeader      = "x-identity"
	signatureTypeHeader = "x-signature-type"

	jsonPaymentOptionsMime      = "application/payment-options"
	jsonPaymentRequestMime      = "application/payment-request"
	jsonPaymentMime             = "application/payment"
	jsonPaymentVerificationMime = "application/payment-verification"
)

// HTTPClient is the transport the service performs requests with; satisfied
// by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Instruction is one required output of a payment request.
type Instruction struct {
	ToAddress string `json:"toAddress"`
	Amount    uint64 `json:"amount"`
	Script    string `json:"script,omitempty"`
}

// PaymentRequest is a verified payment-protocol request.
type PaymentRequest struct {
	Coin            address.Coin
	Network         address.Network
	Instructions    []Instruction
	RequiredFeeRate uint64
	Memo            string
	PaymentUrl      string
	PaymentId       string
	ExpiresOn       int64
	// Verified reports that digest and signature checks passed and which
	// identity signed.
	Verified bool
	SignedBy string
}

// PaymentOption is one chain an invoice can be settled in.
type PaymentOption struct {
	Chain           string `json:"chain"`
	Currency        string `json:"currency"`
	Network         string `json:"network"`
	EstimatedAmount uint64 `json:"estimatedAmount"`
	RequiredFeeRate uint64 `json:"requiredFeeRate"`
	Decimals        int    `json:"decimals"`
	Selected        bool   `json:"selected"`
}

// PaymentOptions is the verified settlement-options listing of an invoice.
type PaymentOptions struct {
	Memo       string
	PaymentUrl string
	PaymentId  string
	ExpiresOn  int64
	Options    []PaymentOption
	Verified   bool
	SignedBy   string
}

type paymentOptionsPayload struct {
	Time           string          `json:"time"`
	Expires        string          `json:"expires"`
	Memo           string          `json:"memo"`
	PaymentUrl     string          `json:"paymentUrl"`
	PaymentId      string          `json:"paymentId"`
	PaymentOptions []PaymentOption `json:"paymentOptions"`
}

type paymentRequestPayload struct {
	Chain    string `json:"chain"`
	Network  string `json:"network"`
	Currency string `json:"currency"`
	Outputs  []struct {
		Address string `json:"address"`
		Amount  uint64 `json:"amount"`
		Script  string `json:"script,omitempty"`
	} `json:"outputs"`
	RequiredFeeRate uint64 `json:"requiredFeeRate"`
	Memo            string `json:"memo"`
	PaymentUrl      string `json:"paymentUrl"`
	PaymentId       string `json:"paymentId"`
	Expires         string `json:"expires"`
}

// ServiceOpts is the struct given to the NewService function
type ServiceOpts struct {
	HTTPClient HTTPClient
	// TrustedKeys whitelists identity keys (hex compressed public keys)
	// allowed to sign payment requests. Empty means any key with a valid
	// signature is accepted, with the identity reported in SignedBy.
	TrustedKeys []string
	Timeout     time.Duration
}

// Service fetches, verifies and settles payment requests.
type Service struct {
	httpClient  HTTPClient
	trustedKeys map[string]struct{}
	breaker     *gobreaker.CircuitBreaker
	timeout     time.Duration
}

// NewService returns a payment-protocol service wrapped in a circuit breaker
// so a misbehaving receiver cannot stall every payment attempt.
func NewService(opts ServiceOpts) *Service {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	trustedKeys := make(map[string]struct{})
	for _, key := range opts.TrustedKeys {
		trustedKeys[strings.ToLower(key)] = struct{}{}
	}

	return &Service{
		httpClient:  httpClient,
		trustedKeys: trustedKeys,
		breaker:     circuitbreaker.NewCircuitBreaker("paypro"),
		timeout:     timeout,
	}
}

// FetchPaymentOptions lists the chains an invoice accepts settlement in. The
// listing carries the same digest and signature headers as the payment
// request itself and is verified the same way.
func (s *Service) FetchPaymentOptions(
	ctx context.Context, url string,
) (*PaymentOptions, error) {
	status, headers, body, err := s.do(
		ctx, http.MethodGet, url, jsonPaymentOptionsMime, nil,
	)
	if err != nil {
		return nil, err
	}
	if err := mapStatusError(status); err != nil {
		return nil, err
	}

	signedBy, err := s.verify(headers, body)
	if err != nil {
		return nil, err
	}

	payload := &paymentOptionsPayload{}
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, fmt.Errorf("invalid payment options payload: %w", err)
	}

	var expiresOn int64
	if len(payload.Expires) > 0 {
		if t, err := time.Parse(time.RFC3339, payload.Expires); err == nil {
			expiresOn = t.Unix()
		}
	}
	return &PaymentOptions{
		Memo:       payload.Memo,
		PaymentUrl: payload.PaymentUrl,
		PaymentId:  payload.PaymentId,
		ExpiresOn:  expiresOn,
		Options:    payload.PaymentOptions,
		Verified:   true,
		SignedBy:   signedBy,
	}, nil
}

// SelectPaymentOption picks one of the advertised chains and fetches the
// payment instructions for it.
func (s *Service) SelectPaymentOption(
	ctx context.Context, url string, coin address.Coin,
) (*PaymentRequest, error) {
	payload, _ := json.Marshal(map[string]string{
		"chain":    strings.ToUpper(coin.String()),
		"currency": strings.ToUpper(coin.String()),
	})
	status, headers, body, err := s.do(
		ctx, http.MethodPost, url, jsonPaymentRequestMime, payload,
	)
	if err != nil {
		return nil, err
	}
	return s.decodePaymentRequest(status, headers, body)
}

// GetPaymentRequest fetches the payment request at the given url and verifies
// its digest and signature before decoding it.
func (s *Service) GetPaymentRequest(
	ctx context.Context, url string,
) (*PaymentRequest, error) {
	status, headers, body, err := s.do(
		ctx, http.MethodGet, url, jsonPaymentRequestMime, nil,
	)
	if err != nil {
		return nil, err
	}
	return s.decodePaymentRequest(status, headers, body)
}

func (s *Service) decodePaymentRequest(
	status int, headers http.Header, body []byte,
) (*PaymentRequest, error) {
	if err := mapStatusError(status); err != nil {
		return nil, err
	}

	signedBy, err := s.verify(headers, body)
	if err != nil {
		return nil, err
	}

	payload := &paymentRequestPayload{}
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, fmt.Errorf("invalid payment request payload: %w", err)
	}
	return toPaymentRequest(payload, signedBy)
}

// VerifyUnsignedPayment submits the unsigned transaction to the receiver for
// pre-flight validation, so a proposal that would be refused is caught before
// copayers spend signatures on it.
func (s *Service) VerifyUnsignedPayment(
	ctx context.Context, url, rawTxHex string, coin address.Coin,
) (string, error) {
	return s.submitTx(ctx, url, rawTxHex, coin, jsonPaymentVerificationMime)
}

// SendPayment submits the raw signed transaction to the receiver once the
// proposal reached its signature threshold.
func (s *Service) SendPayment(
	ctx context.Context, url, rawTxHex string, coin address.Coin,
) (string, error) {
	return s.submitTx(ctx, url, rawTxHex, coin, jsonPaymentMime)
}

func (s *Service) submitTx(
	ctx context.Context, url, rawTxHex string, coin address.Coin, mime string,
) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"chain":        strings.ToUpper(coin.String()),
		"currency":     strings.ToUpper(coin.String()),
		"transactions": []map[string]string{{"tx": rawTxHex}},
	})

	status, _, body, err := s.do(
		ctx, http.MethodPost, url, mime, payload,
	)
	if err != nil {
		return "", err
	}
	if err := mapStatusError(status); err != nil {
		return "", err
	}

	memo := struct {
		Memo string `json:"memo"`
	}{}
	// a missing or non-JSON ack body is not an error
	json.Unmarshal(body, &memo)
	return memo.Memo, nil
}

// verify checks the digest header against the body and the signature header
// against the digest, returning the signing identity.
func (s *Service) verify(headers http.Header, body []byte) (string, error) {
	sigType := headers.Get(signatureTypeHeader)
	if sigType != "ecc" {
		return "", ErrUnsupportedSignatureType
	}

	digest := strings.TrimPrefix(headers.Get(digestHeader), "SHA-256=")
	bodyHash := sha256.Sum256(body)
	expected, err := hex.DecodeString(digest)
	if err != nil || !bytes.Equal(expected, bodyHash[:]) {
		return "", ErrDigestMismatch
	}

	identity := strings.ToLower(headers.Get(identityHeader))
	if len(s.trustedKeys) > 0 {
		if _, ok := s.trustedKeys[identity]; !ok {
			return "", ErrUntrustedIdentity
		}
	}

	identityBytes, err := hex.DecodeString(identity)
	if err != nil {
		return "", ErrSignatureInvalid
	}
	pubKey, err := btcec.ParsePubKey(identityBytes)
	if err != nil {
		return "", ErrSignatureInvalid
	}

	sigBytes, err := hex.DecodeString(headers.Get(signatureHeader))
	if err != nil {
		return "", ErrSignatureInvalid
	}
	signature, err := parseSignature(sigBytes)
	if err != nil {
		return "", ErrSignatureInvalid
	}
	if !signature.Verify(bodyHash[:], pubKey) {
		return "", ErrSignatureInvalid
	}
	return identity, nil
}

func (s *Service) do(
	ctx context.Context, method, url, mime string, body []byte,
) (int, http.Header, []byte, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(
			ctx, method, url, bytes.NewReader(body),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", mime)
		if method == http.MethodPost {
			req.Header.Set("Content-Type", mime)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &httpResult{resp.StatusCode, resp.Header, respBody}, nil
	})
	if err != nil {
		return 0, nil, nil, err
	}
	res := result.(*httpResult)
	return res.status, res.headers, res.body, nil
}

type httpResult struct {
	status  int
	headers http.Header
	body    []byte
}

// mapStatusError translates receiver-side HTTP statuses into the package
// error taxonomy.
func mapStatusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrRequestNotFound
	case status == http.StatusBadRequest ||
		status == http.StatusUnprocessableEntity:
		return ErrRequestExpired
	case status >= 500:
		return ErrBroadcastFailed
	default:
		return fmt.Errorf("payment request failed with status %d", status)
	}
}

func parseSignature(raw []byte) (*btcecdsa.Signature, error) {
	// receivers emit either DER or compact 64-byte r||s signatures
	if sig, err := btcecdsa.ParseDERSignature(raw); err == nil {
		return sig, nil
	}
	if len(raw) == 64 {
		var r btcec.ModNScalar
		var s btcec.ModNScalar
		if r.SetByteSlice(raw[:32]) || s.SetByteSlice(raw[32:]) {
			return nil, ErrSignatureInvalid
		}
		return btcecdsa.NewSignature(&r, &s), nil
	}
	return nil, ErrSignatureInvalid
}

func toPaymentRequest(
	payload *paymentRequestPayload, signedBy string,
) (*PaymentRequest, error) {
	coin, err := address.ParseCoin(strings.ToLower(payload.Currency))
	if err != nil {
		return nil, err
	}
	network := address.Livenet
	if strings.EqualFold(payload.Network, "testnet") {
		network = address.Testnet
	}

	instructions := make([]Instruction, 0, len(payload.Outputs))
	for _, out := range payload.Outputs {
		instructions = append(instructions, Instruction{
			ToAddress: out.Address,
			Amount:    out.Amount,
			Script:    out.Script,
		})
	}

	var expiresOn int64
	if len(payload.Expires) > 0 {
		if t, err := time.Parse(time.RFC3339, payload.Expires); err == nil {
			expiresOn = t.Unix()
		}
	}

	return &PaymentRequest{
		Coin:            coin,
		Network:         network,
		Instructions:    instructions,
		RequiredFeeRate: payload.RequiredFeeRate,
		Memo:            payload.Memo,
		PaymentUrl:      payload.PaymentUrl,
		PaymentId:       payload.PaymentId,
		ExpiresOn:       expiresOn,
		Verified:        true,
		SignedBy:        signedBy,
	}, nil
}
