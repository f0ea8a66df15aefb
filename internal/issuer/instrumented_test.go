package issuer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeService struct {
	createFn func(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error)
	queryFn  func(ctx context.Context, transactionID string) (*CredentialResult, error)
	revokeFn func(ctx context.Context, cid string) (*RevocationResult, error)
}

func (f *fakeService) CreateQRCode(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error) {
	return f.createFn(ctx, req)
}

func (f *fakeService) QueryCredential(ctx context.Context, transactionID string) (*CredentialResult, error) {
	return f.queryFn(ctx, transactionID)
}

func (f *fakeService) Revoke(ctx context.Context, cid string) (*RevocationResult, error) {
	return f.revokeFn(ctx, cid)
}

type recordedCall struct {
	operation string
	outcome   string
}

type fakeRecorder struct {
	calls     []recordedCall
	latencies []string
}

func (r *fakeRecorder) RecordIssuerCall(operation string, outcome string) {
	r.calls = append(r.calls, recordedCall{operation, outcome})
}

func (r *fakeRecorder) RecordUpstreamLatency(api string, duration time.Duration) {
	r.latencies = append(r.latencies, api)
}

func TestInstrumentedClient_CreateQRCode_RecordsSuccess(t *testing.T) {
	recorder := &fakeRecorder{}
	client := NewInstrumentedClient(&fakeService{
		createFn: func(ctx context.Context, req CreateQRCodeRequest) (*CreateQRCodeResult, error) {
			return &CreateQRCodeResult{TransactionID: "txn-1"}, nil
		},
	}, recorder)

	result, err := client.CreateQRCode(context.Background(), CreateQRCodeRequest{VCUid: "vc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TransactionID != "txn-1" {
		t.Errorf("transactionID = %q", result.TransactionID)
	}

	if len(recorder.calls) != 1 || recorder.calls[0] != (recordedCall{"qrcode", "success"}) {
		t.Errorf("calls = %+v, want [{qrcode success}]", recorder.calls)
	}
	if len(recorder.latencies) != 1 || recorder.latencies[0] != "issuer" {
		t.Errorf("latencies = %v, want [issuer]", recorder.latencies)
	}
}

func TestInstrumentedClient_QueryCredential_RecordsFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	client := NewInstrumentedClient(&fakeService{
		queryFn: func(ctx context.Context, transactionID string) (*CredentialResult, error) {
			return nil, &RequestError{StatusCode: 404, Body: "not found"}
		},
	}, recorder)

	_, err := client.QueryCredential(context.Background(), "txn-1")
	if err == nil {
		t.Fatal("expected error")
	}
	// エラーは計測後もそのまま呼び出し元に返る
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Errorf("error type lost through instrumentation: %v", err)
	}

	if len(recorder.calls) != 1 || recorder.calls[0] != (recordedCall{"query", "failure"}) {
		t.Errorf("calls = %+v, want [{query failure}]", recorder.calls)
	}
}

func TestInstrumentedClient_Revoke_RecordsOutcome(t *testing.T) {
	recorder := &fakeRecorder{}
	client := NewInstrumentedClient(&fakeService{
		revokeFn: func(ctx context.Context, cid string) (*RevocationResult, error) {
			return &RevocationResult{CredentialStatus: "REVOKED"}, nil
		},
	}, recorder)

	result, err := client.Revoke(context.Background(), "cid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CredentialStatus != "REVOKED" {
		t.Errorf("credentialStatus = %q", result.CredentialStatus)
	}
	if len(recorder.calls) != 1 || recorder.calls[0] != (recordedCall{"revoke", "success"}) {
		t.Errorf("calls = %+v, want [{revoke success}]", recorder.calls)
	}
}
