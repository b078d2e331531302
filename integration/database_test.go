//go:build database

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// commitFixture is a small collector database: three commits by Alice
// and two by Bob, all in early 2014.
var commitFixture = []string{
	`CREATE TABLE scmlog (
		id INT PRIMARY KEY,
		author_id INT,
		committer_id INT,
		date DATETIME,
		author_date DATETIME,
		repository_id INT
	)`,
	`CREATE TABLE people (id INT PRIMARY KEY, name VARCHAR(255))`,
	`CREATE TABLE upeople (id INT PRIMARY KEY, identifier VARCHAR(255))`,
	`CREATE TABLE people_upeople (people_id INT, upeople_id INT)`,
	`CREATE TABLE actions (id INT PRIMARY KEY, commit_id INT, branch_id INT, file_id INT)`,
	`CREATE TABLE branches (id INT PRIMARY KEY, name VARCHAR(255))`,
	`CREATE TABLE file_links (id INT PRIMARY KEY, file_id INT, file_path VARCHAR(255))`,
	`CREATE TABLE repositories (id INT PRIMARY KEY, name VARCHAR(255), uri VARCHAR(255))`,
	`INSERT INTO people VALUES (1, 'alice@example.org'), (2, 'bob@example.org')`,
	`INSERT INTO upeople VALUES (1, 'Alice'), (2, 'Bob')`,
	`INSERT INTO people_upeople VALUES (1, 1), (2, 2)`,
	`INSERT INTO repositories VALUES (1, 'demo', 'git://example.org/demo.git')`,
	`INSERT INTO scmlog VALUES
		(1, 1, 1, '2014-01-10 10:00:00', '2014-01-10 10:00:00', 1),
		(2, 1, 1, '2014-01-25 16:30:00', '2014-01-25 16:30:00', 1),
		(3, 1, 1, '2014-02-05 09:00:00', '2014-02-05 09:00:00', 1),
		(4, 2, 2, '2014-01-12 11:00:00', '2014-01-12 11:00:00', 1),
		(5, 2, 2, '2014-01-20 14:00:00', '2014-01-20 14:00:00', 1)`,
}

// TestReportWithMySQL runs a full report against a MySQL collector
// database and checks the emitted files.
func TestReportWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "cvsanaly",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/cvsanaly", host, port.Port())

	db, err := sql.Open("mysql", connStr)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	for _, stmt := range commitFixture {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	destdir := t.TempDir()
	env := []string{
		"VIZPULSE_BACKEND=mysql",
		"VIZPULSE_SCM_DB_CONNECT=" + connStr,
		"VIZPULSE_TRACKING_DB_CONNECT=" + connStr,
		"VIZPULSE_START=2014-01-01",
		"VIZPULSE_END=2014-03-01",
		"VIZPULSE_DESTDIR=" + destdir,
	}

	require.NoError(t, runVizpulseCommand(t, env, "runs", "migrate"))
	require.NoError(t, runVizpulseCommand(t, env, "report"))

	for _, name := range []string{
		"scm-evolutionary.json",
		"scm-static.json",
		"scm-top-ncommits.json",
		"scm-demographics.json",
	} {
		_, err := os.Stat(filepath.Join(destdir, name))
		require.NoError(t, err, "expected report file %s", name)
	}

	require.NoError(t, runVizpulseCommand(t, env, "runs", "status"))
	require.NoError(t, runVizpulseCommand(t, env, "runs", "list"))
}
