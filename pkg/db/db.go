package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// NewPostgresDB opens a connection pool and waits for the database to come up.
// Docker-compose starts the DB alongside the server, so a few retries are
// expected on a cold start.
func NewPostgresDB(connStr string) (*sqlx.DB, error) {
	var database *sqlx.DB
	var err error

	for i := 0; i < 10; i++ {
		database, err = sqlx.Open("postgres", connStr)
		if err == nil {
			err = database.Ping()
		}
		if err == nil {
			break
		}
		logrus.Infof("Waiting for DB... (%d/10)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, err
	}

	logrus.Info("Connected to PostgreSQL")
	return database, nil
}
