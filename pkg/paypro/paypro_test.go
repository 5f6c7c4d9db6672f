package paypro_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/paypro"
)

const requestBody = `{
	"chain": "BTC",
	"network": "main",
	"currency": "BTC",
	"outputs": [
		{"address": "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", "amount": 90000}
	],
	"requiredFeeRate": 25,
	"memo": "order 1337",
	"paymentUrl": "https://pay.example.com/i/abc",
	"paymentId": "abc",
	"expires": "2026-09-01T12:00:00Z"
}`

type signer struct {
	privKey  *btcec.PrivateKey
	identity string
}

func newSigner(t *testing.T) *signer {
	t.Helper()
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return &signer{
		privKey:  privKey,
		identity: hex.EncodeToString(privKey.PubKey().SerializeCompressed()),
	}
}

func (s *signer) sign(body string) string {
	digest := sha256.Sum256([]byte(body))
	return hex.EncodeToString(ecdsa.Sign(s.privKey, digest[:]).Serialize())
}

// newRequestServer serves the fixture payment request, letting the test
// tamper with individual headers.
func newRequestServer(
	t *testing.T, s *signer, mutate func(http.Header),
) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			digest := sha256.Sum256([]byte(requestBody))
			w.Header().Set("digest", "SHA-256="+hex.EncodeToString(digest[:]))
			w.Header().Set("signature", s.sign(requestBody))
			w.Header().Set("x-identity", s.identity)
			w.Header().Set("x-signature-type", "ecc")
			if mutate != nil {
				mutate(w.Header())
			}
			w.Write([]byte(requestBody))
		},
	))
}

const optionsBody = `{
	"time": "2026-08-29T10:00:00Z",
	"expires": "2026-09-01T12:00:00Z",
	"memo": "order 1337",
	"paymentUrl": "https://pay.example.com/i/abc",
	"paymentId": "abc",
	"paymentOptions": [
		{"chain": "BTC", "currency": "BTC", "network": "main",
		 "estimatedAmount": 90000, "requiredFeeRate": 25, "decimals": 8,
		 "selected": false},
		{"chain": "BCH", "currency": "BCH", "network": "main",
		 "estimatedAmount": 2500000, "requiredFeeRate": 1, "decimals": 8,
		 "selected": false}
	]
}`

// newSignedServer serves the given body with valid digest and signature
// headers, handing the request to inspect first when given.
func newSignedServer(
	t *testing.T, s *signer, body string, inspect func(*http.Request),
) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if inspect != nil {
				inspect(r)
			}
			digest := sha256.Sum256([]byte(body))
			w.Header().Set("digest", "SHA-256="+hex.EncodeToString(digest[:]))
			w.Header().Set("signature", s.sign(body))
			w.Header().Set("x-identity", s.identity)
			w.Header().Set("x-signature-type", "ecc")
			w.Write([]byte(body))
		},
	))
}

func TestFetchPaymentOptions(t *testing.T) {
	s := newSigner(t)
	var gotAccept string
	srv := newSignedServer(t, s, optionsBody, func(r *http.Request) {
		gotAccept = r.Header.Get("Accept")
	})
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	opts, err := svc.FetchPaymentOptions(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Equal(t, "application/payment-options", gotAccept)
	require.True(t, opts.Verified)
	require.Equal(t, s.identity, opts.SignedBy)
	require.Equal(t, "order 1337", opts.Memo)
	require.Len(t, opts.Options, 2)
	require.Equal(t, "BTC", opts.Options[0].Chain)
	require.Equal(t, uint64(90000), opts.Options[0].EstimatedAmount)
	require.Equal(t, "BCH", opts.Options[1].Chain)
	require.Greater(t, opts.ExpiresOn, int64(0))

	t.Run("tampered listing", func(t *testing.T) {
		forged := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				digest := sha256.Sum256([]byte(optionsBody))
				w.Header().Set(
					"digest", "SHA-256="+hex.EncodeToString(digest[:]),
				)
				w.Header().Set("signature", s.sign(optionsBody))
				w.Header().Set("x-identity", s.identity)
				w.Header().Set("x-signature-type", "ecc")
				// body diverges from what was signed
				w.Write([]byte(`{"paymentOptions": []}`))
			},
		))
		defer forged.Close()

		_, err := svc.FetchPaymentOptions(context.Background(), forged.URL)
		require.ErrorIs(t, err, paypro.ErrDigestMismatch)
	})
}

func TestSelectPaymentOption(t *testing.T) {
	s := newSigner(t)
	var gotContentType string
	var gotBody []byte
	srv := newSignedServer(t, s, requestBody, func(r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
	})
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	req, err := svc.SelectPaymentOption(
		context.Background(), srv.URL, address.BTC,
	)
	require.NoError(t, err)

	require.Equal(t, "application/payment-request", gotContentType)
	require.Contains(t, string(gotBody), `"chain":"BTC"`)
	require.True(t, req.Verified)
	require.Equal(t, address.BTC, req.Coin)
	require.Len(t, req.Instructions, 1)
}

func TestGetPaymentRequest(t *testing.T) {
	s := newSigner(t)
	srv := newRequestServer(t, s, nil)
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	req, err := svc.GetPaymentRequest(context.Background(), srv.URL)
	require.NoError(t, err)

	require.True(t, req.Verified)
	require.Equal(t, s.identity, req.SignedBy)
	require.Equal(t, address.BTC, req.Coin)
	require.Equal(t, address.Livenet, req.Network)
	require.Len(t, req.Instructions, 1)
	require.Equal(
		t, "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", req.Instructions[0].ToAddress,
	)
	require.Equal(t, uint64(90000), req.Instructions[0].Amount)
	require.Equal(t, uint64(25), req.RequiredFeeRate)
	require.Equal(t, "order 1337", req.Memo)
	require.Equal(t, "https://pay.example.com/i/abc", req.PaymentUrl)
	require.Greater(t, req.ExpiresOn, int64(0))
}

func TestGetPaymentRequestCompactSignature(t *testing.T) {
	s := newSigner(t)
	srv := newRequestServer(t, s, func(h http.Header) {
		digest := sha256.Sum256([]byte(requestBody))
		// strip the recovery header byte to get the raw r||s form
		raw := ecdsa.SignCompact(s.privKey, digest[:], true)[1:]
		h.Set("signature", hex.EncodeToString(raw))
	})
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	req, err := svc.GetPaymentRequest(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, req.Verified)
}

func TestGetPaymentRequestVerification(t *testing.T) {
	s := newSigner(t)

	tests := []struct {
		name   string
		mutate func(http.Header)
		err    error
	}{
		{
			"tampered digest",
			func(h http.Header) {
				digest := sha256.Sum256([]byte("something else"))
				h.Set("digest", "SHA-256="+hex.EncodeToString(digest[:]))
			},
			paypro.ErrDigestMismatch,
		},
		{
			"malformed digest",
			func(h http.Header) { h.Set("digest", "SHA-256=zz") },
			paypro.ErrDigestMismatch,
		},
		{
			"forged signature",
			func(h http.Header) {
				other := newSigner(t)
				h.Set("signature", other.sign(requestBody))
			},
			paypro.ErrSignatureInvalid,
		},
		{
			"garbage signature",
			func(h http.Header) { h.Set("signature", "deadbeef") },
			paypro.ErrSignatureInvalid,
		},
		{
			"unsupported signature type",
			func(h http.Header) { h.Set("x-signature-type", "pgp") },
			paypro.ErrUnsupportedSignatureType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRequestServer(t, s, tt.mutate)
			defer srv.Close()

			svc := paypro.NewService(paypro.ServiceOpts{})
			_, err := svc.GetPaymentRequest(context.Background(), srv.URL)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGetPaymentRequestTrustedKeys(t *testing.T) {
	s := newSigner(t)
	srv := newRequestServer(t, s, nil)
	defer srv.Close()

	t.Run("whitelisted identity", func(t *testing.T) {
		svc := paypro.NewService(paypro.ServiceOpts{
			TrustedKeys: []string{s.identity},
		})
		req, err := svc.GetPaymentRequest(context.Background(), srv.URL)
		require.NoError(t, err)
		require.Equal(t, s.identity, req.SignedBy)
	})

	t.Run("unknown identity", func(t *testing.T) {
		other := newSigner(t)
		svc := paypro.NewService(paypro.ServiceOpts{
			TrustedKeys: []string{other.identity},
		})
		_, err := svc.GetPaymentRequest(context.Background(), srv.URL)
		require.ErrorIs(t, err, paypro.ErrUntrustedIdentity)
	})
}

func TestGetPaymentRequestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		err    error
	}{
		{http.StatusNotFound, paypro.ErrRequestNotFound},
		{http.StatusBadRequest, paypro.ErrRequestExpired},
		{http.StatusUnprocessableEntity, paypro.ErrRequestExpired},
		{http.StatusInternalServerError, paypro.ErrBroadcastFailed},
		{http.StatusBadGateway, paypro.ErrBroadcastFailed},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				},
			))
			defer srv.Close()

			svc := paypro.NewService(paypro.ServiceOpts{})
			_, err := svc.GetPaymentRequest(context.Background(), srv.URL)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSendPayment(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			gotBody = buf
			w.Write([]byte(`{"memo": "payment received"}`))
		},
	))
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	memo, err := svc.SendPayment(
		context.Background(), srv.URL, "0200ffee", address.BTC,
	)
	require.NoError(t, err)
	require.Equal(t, "payment received", memo)
	require.Equal(t, "application/payment", gotContentType)
	require.Contains(t, string(gotBody), `"chain":"BTC"`)
	require.Contains(t, string(gotBody), `"tx":"0200ffee"`)
}

func TestVerifyUnsignedPayment(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			w.Write([]byte(`{"memo": "payment appears valid"}`))
		},
	))
	defer srv.Close()

	svc := paypro.NewService(paypro.ServiceOpts{})
	memo, err := svc.VerifyUnsignedPayment(
		context.Background(), srv.URL, "0200ffee", address.BTC,
	)
	require.NoError(t, err)
	require.Equal(t, "payment appears valid", memo)
	require.Equal(t, "application/payment-verification", gotContentType)

	t.Run("rejected by receiver", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
		))
		defer srv.Close()

		_, err := svc.VerifyUnsignedPayment(
			context.Background(), srv.URL, "0200ffee", address.BTC,
		)
		require.ErrorIs(t, err, paypro.ErrRequestExpired)
	})
}
