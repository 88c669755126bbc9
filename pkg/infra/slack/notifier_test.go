package slack_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	slackinfra "github.com/m-mizutani/podrelease/pkg/infra/slack"
	"github.com/slack-go/slack"
)

func TestBuildMessage(t *testing.T) {
	t.Run("successful run", func(t *testing.T) {
		msg := slackinfra.BuildMessage("CardIO", &model.PipelineResult{
			RunID:   "run-1",
			Version: "5.4.1",
			Stages: []model.StageResult{
				{Stage: model.StageValidate, Status: model.StatusSucceeded},
				{Stage: model.StageArchive, Status: model.StatusSkipped},
			},
			Syncs: []model.SyncResult{
				{Repo: "cordova", Status: model.StatusSucceeded, ReleaseURL: "https://example.com/r"},
			},
		})

		gt.Equal(t, msg.Text, "CardIO 5.4.1 released")
		gt.A(t, msg.Attachments).Length(1)
		gt.Equal(t, msg.Attachments[0].Color, "good")
		gt.A(t, msg.Attachments[0].Fields).Length(4)
		gt.Equal(t, msg.Attachments[0].Fields[2].Value, "validate: succeeded\narchive: skipped")
		gt.Equal(t, msg.Attachments[0].Fields[3].Value, "succeeded https://example.com/r")
	})

	t.Run("failed run", func(t *testing.T) {
		msg := slackinfra.BuildMessage("CardIO", &model.PipelineResult{
			Version: "5.4.1",
			Stages: []model.StageResult{
				{Stage: model.StageBuild, Status: model.StatusFailed, Error: "exit 1"},
			},
			Err: errors.New("exit 1"),
		})

		gt.Equal(t, msg.Text, "CardIO 5.4.1 release failed")
		gt.Equal(t, msg.Attachments[0].Color, "danger")
		gt.Equal(t, msg.Attachments[0].Fields[2].Value, "build: failed (exit 1)")
	})
}

func TestNotifier_Notify(t *testing.T) {
	var received slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := slackinfra.NewNotifier(server.URL, "CardIO")
	err := notifier.Notify(context.Background(), &model.PipelineResult{RunID: "run-1", Version: "5.4.1"})
	gt.NoError(t, err)
	gt.Equal(t, received.Text, "CardIO 5.4.1 released")
}
