package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"asset-inventory-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.PushSubscription{}))
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, userID int64, endpoint string) {
	user := model.User{ID: userID, Username: fmt.Sprintf("user%d", userID), Role: model.RoleStaff}
	require.NoError(t, db.FirstOrCreate(&user, model.User{ID: userID}).Error)
	sub := model.PushSubscription{
		Endpoint: endpoint,
		UserID:   userID,
		P256DH:   "test_p256dh",
		Auth:     "test_auth",
	}
	require.NoError(t, db.Create(&sub).Error)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch(Notification{UserID: 123, Title: "Overdue item", Body: "LAP-0001 is overdue"})

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job.UserID)
		assert.Equal(t, "Overdue item", job.Title)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification to each subscription", func(t *testing.T) {
		seedSubscription(t, db, 101, "https://example.com/push")

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.JSONEq(t, `{"title":"Maintenance assigned","body":"Request #7 is yours"}`, string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(Notification{UserID: 101, Title: "Maintenance assigned", Body: "Request #7 is yours"})
		wg.Wait()
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		seedSubscription(t, db, 102, "https://example.com/expired")

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(Notification{UserID: 102, Title: "Item due", Body: "Return by tomorrow"})
		wg.Wait()

		// Allow the delete following the 410 response to land.
		assert.Eventually(t, func() bool {
			var count int64
			db.Model(&model.PushSubscription{}).
				Where("endpoint = ?", "https://example.com/expired").
				Count(&count)
			return count == 0
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("users with no subscriptions are skipped", func(t *testing.T) {
		called := false
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				called = true
				return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
			},
		}

		wp.Dispatch(Notification{UserID: 999, Title: "noop", Body: "noop"})
		time.Sleep(100 * time.Millisecond)
		assert.False(t, called)
	})
}
