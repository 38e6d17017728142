package appcontext

import (
	"context"
	"log"
	"strings"

	"github.com/RoyceAzure/lab/livesale/internal/config"
	"github.com/RoyceAzure/lab/livesale/internal/infra/producer"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/livesale/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/livesale/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf                 *config.Config
	DbConn             *gorm.DB
	Store              db.UnifiedDB
	RedisClient        *redis.Client
	SaleEventProducer  producer.ISaleEventProducer
	ReservationService *service.ReservationService
	SaleService        *service.SaleService
	LiveItemService    *service.LiveItemService
	CustomerService    *service.CustomerService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}

	err := app.Init()
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (app *ApplicationContext) Init() error {
	err := app.setUpDbConn()
	if err != nil {
		return err
	}

	err = app.setUpStore()
	if err != nil {
		return err
	}

	app.setUpRedisClient()
	app.setUpProducer()
	app.setUpServices()

	return nil
}

func (app *ApplicationContext) setUpDbConn() error {
	log.Printf("Start setup db conn")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbConn = conn
	log.Printf("Finish setup db conn")
	return nil
}

func (app *ApplicationContext) setUpStore() error {
	log.Printf("Start setup unified db")
	app.Store = db.NewUnifiedDB(app.DbConn)
	err := app.Store.InitMigrate()
	if err != nil {
		return err
	}
	log.Printf("Finish setup unified db")
	return nil
}

func (app *ApplicationContext) setUpRedisClient() {
	app.RedisClient = redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPas,
	})
}

func (app *ApplicationContext) setUpProducer() {
	app.SaleEventProducer = producer.NewSaleEventProducer(producer.SaleEventProducerConfig{
		Brokers:       strings.Split(app.Cf.KafkaBrokers, ","),
		Topic:         app.Cf.KafkaSaleTopic,
		NumPartitions: app.Cf.KafkaParts,
	})
}

func (app *ApplicationContext) setUpServices() {
	stockRepo := redis_repo.NewItemStockRepo(app.RedisClient)
	guardRepo := redis_repo.NewReservationGuardRepo(app.RedisClient, 0)
	cachedItems := redis_decorator.NewCacheAsideLiveItemRepo(app.Store, stockRepo)

	app.ReservationService = service.NewReservationService(app.Store, app.SaleEventProducer, guardRepo, stockRepo)
	app.SaleService = service.NewSaleService(app.Store)
	app.LiveItemService = service.NewLiveItemService(app.Store, cachedItems)
	app.CustomerService = service.NewCustomerService(app.Store)
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	if app.SaleEventProducer != nil {
		if err := app.SaleEventProducer.Close(); err != nil {
			log.Printf("producer close error: %v", err)
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}
	if app.DbConn != nil {
		sqlDB, err := app.DbConn.DB()
		if err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}
