package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/logger"
)

// EnsureTopicsExist creates the given topics if the cluster does not have
// them yet. Creation failures for individual topics are logged and skipped
// so one bad topic does not block startup.
func EnsureTopicsExist(brokers []string, topics []string, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case err == nil:
			log.Info("KAFKA", "created topic "+topic)
		case strings.Contains(err.Error(), "already exists"):
			log.Info("KAFKA", "topic "+topic+" already exists")
		default:
			log.Warn("KAFKA", "create topic "+topic+": "+err.Error())
		}
	}

	// Give the cluster a moment to propagate new topics.
	time.Sleep(time.Second)
	return nil
}
