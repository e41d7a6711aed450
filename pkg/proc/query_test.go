package proc

import (
	"errors"
	"testing"
)

func TestQuerySized(t *testing.T) {
	tests := []struct {
		name      string
		probeSize uint32
		fetchErr  error
		wantLen   int
		wantErr   bool
	}{
		{
			name:      "probe reports exact size",
			probeSize: 128,
			wantLen:   128,
		},
		{
			name:      "zero probe falls back to default",
			probeSize: 0,
			wantLen:   defaultQueryBufferSize,
		},
		{
			name:      "fetch failure propagates",
			probeSize: 16,
			fetchErr:  errors.New("query failed"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fetched int
			buf, err := querySized(
				func() uint32 { return tt.probeSize },
				func(buf []byte) error {
					fetched = len(buf)
					return tt.fetchErr
				})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(buf) != tt.wantLen {
				t.Errorf("buffer length = %d, want %d", len(buf), tt.wantLen)
			}
			if fetched != tt.wantLen {
				t.Errorf("fetch saw %d bytes, want %d", fetched, tt.wantLen)
			}
		})
	}
}

func TestQuerySizedFetchSeesAllocatedBuffer(t *testing.T) {
	payload := []byte("remote data")
	buf, err := querySized(
		func() uint32 { return uint32(len(payload)) },
		func(buf []byte) error {
			copy(buf, payload)
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != string(payload) {
		t.Errorf("got %q, want %q", buf, payload)
	}
}
