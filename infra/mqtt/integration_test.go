//go:build !no_containers

package mqtt

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/core/notify"
	"github.com/kilianp07/seatmatch/test/util"
)

// TestIntegration publishes notifications to a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, err := util.StartBroker(ctx)
	if err != nil {
		t.Fatalf("start broker: %v", err)
	}
	defer broker.Close()

	sub, err := broker.Subscribe(ctx, "seatmatch/#")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	cli, err := NewPahoClient(Config{Enabled: true, Broker: broker.URL, QoS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer cli.Close()

	a := model.Assignment{ApplicantID: 1001, Grade: "05", Facility: "ELEM001", Rank: 1}
	if err := cli.PublishAssignment(ctx, "run-it", a); err != nil {
		t.Fatalf("publish assignment: %v", err)
	}
	if err := cli.PublishUnmatched(ctx, "run-it", &model.Applicant{ID: 1002, Grade: "03"}); err != nil {
		t.Fatalf("publish unmatched: %v", err)
	}

	got := map[string][]byte{}
	for len(got) < 2 {
		select {
		case m := <-sub.C:
			got[m.Topic] = m.Payload
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for messages, got %d", len(got))
		}
	}
	var am notify.AssignmentMessage
	if err := json.Unmarshal(got["seatmatch/assignments/ELEM001/05"], &am); err != nil {
		t.Fatalf("assignment payload: %v", err)
	}
	if am.ApplicantID != 1001 || am.RunID != "run-it" {
		t.Fatalf("unexpected assignment %+v", am)
	}
	if _, ok := got["seatmatch/unmatched/03"]; !ok {
		t.Fatalf("unmatched message missing: %v", got)
	}
}
