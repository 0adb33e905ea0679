package notification

import (
	"context"
	"testing"

	"github.com/iliyamo/ticketing-core/internal/queue"
)

func TestDispatchSignalCarriesChannel(t *testing.T) {
	var got queue.OutboxDispatchSignal
	o := &Outbox{Dispatch: func(ctx context.Context, sig queue.OutboxDispatchSignal) error {
		got = sig
		return nil
	}}
	sig := queue.OutboxDispatchSignal{OutboxID: 7, TenantID: "tenant-a", Channel: "email"}
	if err := o.Dispatch(context.Background(), sig); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got.OutboxID != 7 || got.Channel != "email" {
		t.Fatalf("got %+v, want OutboxID=7 Channel=email", got)
	}
}
