package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/internal/solver"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/events"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

func main() {
	exportDir := flag.String("export-dir", "", "write the generated timetable to this directory")
	formats := flag.String("formats", "csv,pdf", "comma separated export formats")
	defaults := flag.Bool("default-timeslots", false, "regenerate the 5x6 timeslot grid before solving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	timeslotRepo := repository.NewTimeslotRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	solverSvc := service.NewSolverService(
		service.SnapshotReaders{
			Rooms:     repository.NewRoomRepository(db),
			Teachers:  repository.NewTeacherRepository(db),
			Subjects:  repository.NewSubjectRepository(db),
			Groups:    repository.NewGroupRepository(db),
			Timeslots: timeslotRepo,
		},
		scheduleRepo,
		db,
		solver.New(logr.Named("solver")),
		nil,
		nil,
		nil,
		events.NopPublisher{},
		nil,
		logr,
		service.SolverServiceConfig{},
	)

	if *defaults {
		res, err := service.NewTimeslotService(timeslotRepo, scheduleRepo, db, solverSvc, logr).GenerateDefaults(ctx)
		if err != nil {
			logr.Sugar().Fatalw("timeslot generation failed", "error", err)
		}
		fmt.Printf("Generated %d default timeslots\n\n", res.Created)
	}

	result, err := solverSvc.Solve(ctx)
	if err != nil {
		var structural *solver.StructuralInfeasibilityError
		if errors.As(err, &structural) {
			fmt.Fprintln(os.Stderr, structural.Report())
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
	fmt.Println(result.Summary)

	if *exportDir == "" {
		return
	}
	store, err := storage.NewLocalStorage(*exportDir)
	if err != nil {
		logr.Sugar().Fatalw("export directory unavailable", "error", err)
	}
	scheduleSvc := service.NewScheduleService(scheduleRepo, timeslotRepo, db, nil, nil, nil, nil, logr,
		service.ScheduleServiceConfig{ExportTitle: cfg.Export.Title})
	for _, format := range strings.Split(*formats, ",") {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		file, err := scheduleSvc.Export(ctx, dto.ExportQuery{Format: format})
		if err != nil {
			logr.Error("export failed", zap.String("format", format), zap.Error(err))
			continue
		}
		path, err := store.Save(file.Filename, file.Body)
		if err != nil {
			logr.Error("export not written", zap.String("file", file.Filename), zap.Error(err))
			continue
		}
		fmt.Printf("Wrote %s\n", path)
	}
}
