package rabbitmq

import (
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage(t *testing.T) {
	type testMsg struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	t.Run("publishes persistent json", func(t *testing.T) {
		pub := new(PublisherMock)
		pub.On("Publish", NotificationsExchange, "welcome", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			return p.ContentType == "application/json" &&
				p.DeliveryMode == amqp.Persistent &&
				string(p.Body) == `{"id":1,"name":"Hello"}`
		})).Return(nil).Once()

		err := PublishMessage(pub, NotificationsExchange, "welcome", testMsg{ID: 1, Name: "Hello"})
		require.NoError(t, err)
		pub.AssertExpectations(t)
	})

	t.Run("broker error", func(t *testing.T) {
		pub := new(PublisherMock)
		pub.On("Publish", "", "q", false, false, mock.Anything).Return(errors.New("channel closed")).Once()

		err := PublishMessage(pub, "", "q", testMsg{ID: 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("marshal error", func(t *testing.T) {
		pub := new(PublisherMock)
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}

		err := PublishMessage(pub, "", "q", badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
