package main

import (
	"context"
	"os"

	"github.com/zatekoja/Medicalqueryreview/internal/adapters/snapshot"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

// Seeds the configured snapshot backend with a demo clinic. The API server
// picks it up on its next start.
func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("seed", cfg.Server.Env)
	logger := observability.GetLogger()

	ctx := context.Background()

	store, err := snapshot.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer store.Close()

	existing, err := store.Load(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read existing snapshot")
	}
	if existing != nil && os.Getenv("RESET_STATE") != "true" {
		logger.Info().Msg("snapshot already present; set RESET_STATE=true to replace it")
		return
	}

	ids := services.NewIDAllocator()
	doctors := services.NewDoctorRegistry(ids)
	patients := services.NewPatientRegistry(ids, doctors)
	queries := services.NewQueryLifecycleService(ids, patients, doctors, nil)

	// 1. Doctors
	lee := doctors.Register(ctx, "Dr. Amara Lee", "pulmonology")
	okafor := doctors.Register(ctx, "Dr. Chidi Okafor", "dermatology")
	doctors.Register(ctx, "Dr. Hana Kim", "cardiology")

	// 2. Patients
	sarah := patients.Register(ctx, "Sarah Bello", "asthma", "sarah@example.com")
	tunde := patients.Register(ctx, "Tunde Adeyemi", "eczema", "tunde@example.com")
	patients.Register(ctx, "Grace Obi", "hypertension", "")

	must := func(err error) {
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed")
		}
	}
	must(patients.Assign(ctx, sarah, lee))
	must(patients.Assign(ctx, tunde, okafor))

	// 3. Queries in each lifecycle state
	_, err = queries.Submit(ctx, sarah, "Inhaler dosage", "How many puffs per day is safe during a flare?")
	must(err)

	reviewed, err := queries.Submit(ctx, tunde, "Rash after new cream", "Redness spread to my forearm overnight.")
	must(err)
	must(queries.Take(ctx, reviewed, okafor))

	answered, err := queries.Submit(ctx, sarah, "Spacer device", "Should I use a spacer with my inhaler?")
	must(err)
	must(queries.Take(ctx, answered, lee))
	must(queries.Respond(ctx, answered, lee, "Yes. A spacer improves delivery to the lungs; rinse it weekly."))

	persistence := services.NewPersistenceService(ids, patients, doctors, queries, store, store.Backend())
	if err := persistence.Save(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to save seeded snapshot")
	}

	total, pending := queries.Count()
	logger.Info().
		Str("backend", store.Backend()).
		Int("patients", patients.Count()).
		Int("doctors", doctors.Count()).
		Int("queries", total).
		Int("pending", pending).
		Msg("seeding completed")
}
