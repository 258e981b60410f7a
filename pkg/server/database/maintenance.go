/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"gorm.io/gorm"
)

const (
	// walCheckpointSpec is the schedule of the SQLite WAL checkpoint
	walCheckpointSpec = "@every 5m"
	// vacuumSpec is the schedule of the SQLite VACUUM
	vacuumSpec = "@every 24h"
)

var errNotWAL = errors.New("database is not in WAL mode")

// walCheckpoint is the outcome reported by PRAGMA wal_checkpoint
type walCheckpoint struct {
	Busy         int
	Log          int
	Checkpointed int
}

func checkpointWAL(db *gorm.DB) (walCheckpoint, error) {
	var res walCheckpoint
	row := db.Raw("PRAGMA wal_checkpoint(TRUNCATE)").Row()
	if err := row.Scan(&res.Busy, &res.Log, &res.Checkpointed); err != nil {
		return res, errors.Wrap(err, "checkpointing WAL")
	}
	if res.Log == -1 {
		return res, errNotWAL
	}

	return res, nil
}

func runWALCheckpoint(db *gorm.DB) {
	res, err := checkpointWAL(db)
	if err != nil {
		log.ErrorWrap(err, "checkpointing WAL")
		return
	}

	log.WithFields(log.Fields{
		"busy":         res.Busy,
		"checkpointed": res.Checkpointed,
	}).Debug("WAL checkpoint complete")
}

func vacuum(db *gorm.DB) {
	if err := db.Exec("VACUUM").Error; err != nil {
		log.ErrorWrap(err, "running VACUUM")
		return
	}

	log.Info("VACUUM complete")
}

// StartMaintenance schedules the periodic SQLite housekeeping jobs. It returns
// nil for drivers that need none. The caller stops the returned scheduler.
func StartMaintenance(db *gorm.DB, driver string) (*cron.Cron, error) {
	if driver != DriverSQLite {
		return nil, nil
	}

	c := cron.New()
	if err := c.AddFunc(walCheckpointSpec, func() { runWALCheckpoint(db) }); err != nil {
		return nil, errors.Wrap(err, "scheduling WAL checkpoint")
	}
	if err := c.AddFunc(vacuumSpec, func() { vacuum(db) }); err != nil {
		return nil, errors.Wrap(err, "scheduling VACUUM")
	}
	c.Start()

	log.WithFields(log.Fields{
		"wal_checkpoint": walCheckpointSpec,
		"vacuum":         vacuumSpec,
	}).Info("Database maintenance scheduled")

	return c, nil
}
