package app

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-sleep-alert/internal/common/database"
	mqttcommon "wisefido-sleep-alert/internal/common/mqtt"
	rediscommon "wisefido-sleep-alert/internal/common/redis"
	"wisefido-sleep-alert/internal/config"
	"wisefido-sleep-alert/internal/consumer"
	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/httpapi"
	"wisefido-sleep-alert/internal/lock"
	"wisefido-sleep-alert/internal/notifier"
	"wisefido-sleep-alert/internal/repository"
	"wisefido-sleep-alert/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SleepAlertService 睡眠预警服务（整合各层）
type SleepAlertService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client
	kafka       *notifier.KafkaNotifier
	logger      *zap.Logger

	rules          *service.RuleService
	evaluation     *service.EvaluationService
	streamConsumer *consumer.StreamConsumer
	mqttTrigger    *consumer.MQTTTrigger
	httpServer     *httpapi.Server
}

// NewSleepAlertService 创建服务，连接存储与消息组件
func NewSleepAlertService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *SleepAlertService, err error) {
	s := &SleepAlertService{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			s.Stop()
		}
	}()

	// 1. 存储
	dialect := repository.DialectPostgres
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		s.db, err = database.NewSQLiteDB(&cfg.SQLite)
		dialect = repository.DialectSQLite
	default:
		s.db, err = database.NewPostgresDB(&cfg.Database)
	}
	if err != nil {
		return nil, err
	}
	if err = repository.InitSchema(ctx, s.db); err != nil {
		return nil, err
	}

	// 2. Redis（分布式锁、快照流、预警流）
	if cfg.Alert.Lock.Backend == "redis" || cfg.Alert.Streams.Enabled {
		if s.redisClient, err = rediscommon.NewRedisClient(ctx, &cfg.Redis); err != nil {
			return nil, err
		}
	}

	// 3. MQTT / Kafka
	if cfg.Alert.MQTTTrigger.Enabled {
		if s.mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger); err != nil {
			return nil, err
		}
	}
	if cfg.Alert.KafkaEnabled {
		writer, err := notifier.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		s.kafka = notifier.NewKafkaNotifier(writer)
	}

	// 4. Repository 层
	ruleRepo := newRuleRepository(cfg, s.db, dialect, logger)
	recordRepo := repository.NewAlertRecordsRepository(s.db, dialect, logger)

	// 5. 锁与通知
	var locker lock.DayLocker
	if cfg.Alert.Lock.Backend == "redis" {
		locker = lock.NewRedisDayLock(s.redisClient, cfg.Alert.Lock.KeyPrefix, cfg.Alert.Lock.TTL, cfg.Alert.Lock.Wait, logger)
	} else {
		locker = lock.NewLocalDayLock()
	}

	var sinks []notifier.Notifier
	if cfg.Alert.Streams.Enabled {
		sinks = append(sinks, notifier.NewRedisStreamNotifier(s.redisClient, cfg.Alert.Streams.Alerts, cfg.Alert.Streams.MaxLen))
	}
	if s.mqttClient != nil {
		sinks = append(sinks, notifier.NewMQTTNotifier(s.mqttClient, cfg.Alert.MQTTTrigger.PublishTopic, cfg.MQTT.QoS))
	}
	if s.kafka != nil {
		sinks = append(sinks, s.kafka)
	}
	fanout := notifier.NewMultiNotifier(logger, sinks...)

	// 6. Service 层
	dataClient := service.NewSleepDataClient(service.DataClientConfig{
		BaseURL:    cfg.DataAPI.BaseURL,
		Token:      cfg.DataAPI.Token,
		Timeout:    cfg.DataAPI.Timeout,
		RetryCount: cfg.DataAPI.RetryCount,
	}, logger)
	s.rules = service.NewRuleService(ruleRepo, logger)
	records := service.NewRecordService(recordRepo, cfg.Location(), logger)
	s.evaluation = service.NewEvaluationService(ruleRepo, recordRepo, locker,
		evaluator.NewEvaluator(logger), fanout, dataClient, logger)

	// 7. 输入端
	if cfg.Alert.Streams.Enabled {
		s.streamConsumer = consumer.NewStreamConsumer(consumer.StreamConfig{
			Stream:        cfg.Alert.Streams.Snapshot,
			Group:         cfg.Alert.Streams.ConsumerGroup,
			ConsumerName:  cfg.Alert.Streams.ConsumerName,
			BatchSize:     cfg.Alert.Streams.BatchSize,
			Block:         cfg.Alert.Streams.Block,
			ReclaimIdle:   cfg.Alert.Streams.ReclaimIdle,
			MaxDeliveries: cfg.Alert.Streams.MaxDeliveries,
		}, s.redisClient, s.evaluation, logger)
	}
	if s.mqttClient != nil {
		s.mqttTrigger = consumer.NewMQTTTrigger(cfg.Alert.MQTTTrigger.SubscribeTopic, cfg.MQTT.QoS,
			s.evaluation, cfg.Location(), logger)
	}
	s.httpServer = httpapi.NewServer(cfg.HTTP.Addr,
		httpapi.NewHandler(s.rules, records, s.evaluation, logger), logger)

	logger.Info("Sleep alert service created",
		zap.String("storage", dialect.String()),
		zap.String("lock", cfg.Alert.Lock.Backend),
		zap.Int("notifiers", fanout.Len()),
		zap.Bool("streams", cfg.Alert.Streams.Enabled),
		zap.Bool("mqtt", s.mqttClient != nil),
		zap.Bool("kafka", s.kafka != nil),
	)
	return s, nil
}

// Evaluation 评估服务
func (s *SleepAlertService) Evaluation() *service.EvaluationService {
	return s.evaluation
}

// Start 启动 HTTP、快照流消费与 MQTT 订阅，任一组件出错或 ctx 取消时返回
func (s *SleepAlertService) Start(ctx context.Context) error {
	if s.config.Alert.SeedDefaultRules {
		seeded, err := s.rules.SeedDefaultsIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed default rules: %w", err)
		}
		if seeded {
			s.logger.Info("Seeded default sleep alert rules")
		}
	}

	if s.mqttTrigger != nil {
		if err := s.mqttTrigger.Start(ctx, s.mqttClient); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.httpServer.Start(gctx)
	})
	if s.streamConsumer != nil {
		g.Go(func() error {
			return s.streamConsumer.Start(gctx)
		})
	}

	s.logger.Info("Sleep alert service started")
	return g.Wait()
}

// Stop 释放连接
func (s *SleepAlertService) Stop() error {
	s.logger.Info("Stopping sleep alert service")

	if s.mqttClient != nil {
		if s.mqttTrigger != nil {
			if err := s.mqttTrigger.Stop(s.mqttClient); err != nil {
				s.logger.Warn("Failed to unsubscribe MQTT topic", zap.Error(err))
			}
		}
		s.mqttClient.Disconnect()
	}
	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			s.logger.Error("Failed to close kafka writer", zap.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	return nil
}

// newRuleRepository 规则缓存只在本进程内失效；redis 锁意味着多实例部署，此时直接读库
func newRuleRepository(cfg *config.Config, db *sql.DB, dialect repository.Dialect, logger *zap.Logger) repository.RuleRepository {
	rules := repository.NewAlertRulesRepository(db, dialect, logger)
	if cfg.Alert.Lock.Backend != "local" {
		return rules
	}
	return repository.NewCachedRuleRepository(rules, cfg.Alert.RuleCacheTTL, logger)
}
