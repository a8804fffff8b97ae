package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/config"
	"github.com/to404hanga/online_judge_aggregator/event"
)

func InitKafkaClient() sarama.Client {
	var cfg config.KafkaConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal kafka config failed: %v", err)
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		log.Panicf("create kafka client failed: %v", err)
	}
	return client
}

func InitKafkaProducer(client sarama.Client) event.Producer {
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		log.Panicf("create kafka sync producer failed: %v", err)
	}
	return event.NewSaramaSyncProducer(producer)
}
