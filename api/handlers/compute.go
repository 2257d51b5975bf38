package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GlasgowC3lab/ichnos/internal/config"
	"github.com/GlasgowC3lab/ichnos/internal/db"
	"github.com/GlasgowC3lab/ichnos/internal/footprint"
	"github.com/GlasgowC3lab/ichnos/internal/intensity"
	"github.com/GlasgowC3lab/ichnos/internal/power"
	"github.com/GlasgowC3lab/ichnos/internal/report"
	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

// ComputeHandler accepts a multipart upload with a canonical trace CSV and
// intensity data, computes the footprint synchronously, persists the run and
// returns the summary figures.
//
// Form fields: trace (file, required); ci (scalar value) or intensity
// (file); model (power model name, default fixed_minmax); min_watts and
// max_watts (fixed mode) or node_config (file, JSON); interval (window
// width in minutes, default 60); pue; memory_coefficient; workflow (label);
// static ("true" enables host-static accounting).
func ComputeHandler(database *pgxpool.Pool, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceFile, _, err := c.Request.FormFile("trace")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "trace file upload failed"})
			return
		}
		defer traceFile.Close()

		tasks, err := trace.ReadTasks(traceFile)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse trace: " + err.Error()})
			return
		}
		if len(tasks) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "trace contains no usable tasks"})
			return
		}

		carbon, ciLabel, ok := resolveIntensity(c)
		if !ok {
			return
		}

		modelName := c.DefaultPostForm("model", "fixed_minmax")
		nodeConfig, ok := resolveNodeConfig(c)
		if !ok {
			return
		}

		intervalMin, err := strconv.Atoi(c.DefaultPostForm("interval", "60"))
		if err != nil || intervalMin <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval must be a positive number of minutes"})
			return
		}
		width := int64(intervalMin) * 60_000

		pue, err := strconv.ParseFloat(c.DefaultPostForm("pue", strconv.FormatFloat(cfg.DefaultPUE, 'g', -1, 64)), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pue"})
			return
		}
		memCo, err := strconv.ParseFloat(c.DefaultPostForm("memory_coefficient", strconv.FormatFloat(cfg.DefaultMemCo, 'g', -1, 64)), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory_coefficient"})
			return
		}

		opts := footprint.Options{
			PUE:         pue,
			MemoryCoeff: memCo,
			WithStatic:  c.PostForm("static") == "true",
		}

		aggregator, err := footprint.New(power.NewResolver(nodeConfig), modelName, carbon, opts)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := aggregator.Run(tasks, width)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "footprint computation failed: " + err.Error()})
			return
		}

		workflow := c.DefaultPostForm("workflow", "upload")
		repo := db.NewRepository(database)

		runID, err := repo.InsertRun(c.Request.Context(), db.Run{
			Workflow:        workflow,
			ModelName:       modelName,
			CILabel:         ciLabel,
			PUE:             pue,
			WindowWidthMS:   width,
			Energy:          result.Energy,
			EnergyPUE:       result.EnergyPUE,
			MemoryEnergy:    result.MemoryEnergy,
			MemoryEnergyPUE: result.MemoryEnergyPUE,
			Emissions:       result.TotalEmissions(),
			WaterFootprint:  result.WaterFootprint,
			LandFootprint:   result.LandFootprint,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save run"})
			return
		}

		merged := report.MergeByID(result.Records)
		records := make([]db.TaskFootprint, 0, len(merged))
		for _, rec := range merged {
			records = append(records, db.TaskFootprint{
				RunID:       runID,
				TaskID:      rec.ID,
				Name:        rec.Name,
				Start:       rec.Start,
				End:         rec.End,
				CPUCount:    rec.CPUCount,
				AvgCPUUsage: rec.AvgCPUUsage,
				Memory:      rec.Memory,
				Hostname:    rec.Hostname,
				Energy:      rec.Energy,
				AverageCO2e: rec.AverageCO2e,
				AvgCI:       rec.AvgCI,
				Water:       rec.Water,
				Land:        rec.Land,
			})
		}
		if err := repo.InsertTaskFootprints(c.Request.Context(), runID, records); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save task footprints"})
			return
		}
		if err := repo.InsertHostStatic(c.Request.Context(), runID, result.StaticEnergy); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save static energy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id":             runID,
			"workflow":           workflow,
			"tasks":              len(merged),
			"energy":             result.Energy,
			"energy_pue":         result.EnergyPUE,
			"memory_energy":      result.MemoryEnergy,
			"memory_energy_pue":  result.MemoryEnergyPUE,
			"emissions":          result.TotalEmissions(),
			"static_emissions":   result.StaticEmissions,
			"water_footprint":    result.WaterFootprint,
			"land_footprint":     result.LandFootprint,
		})
	}
}

// resolveIntensity reads either the scalar ci form value or the uploaded
// intensity table. Writes the error response itself on failure.
func resolveIntensity(c *gin.Context) (intensity.Source, string, bool) {
	if ci := c.PostForm("ci"); ci != "" {
		value, err := strconv.ParseFloat(ci, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ci must be numeric"})
			return intensity.Source{}, "", false
		}
		return intensity.Scalar(value), ci, true
	}

	file, header, err := c.Request.FormFile("intensity")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either a ci value or an intensity file is required"})
		return intensity.Source{}, "", false
	}
	defer file.Close()

	source, err := intensity.ParseTable(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse intensity file: " + err.Error()})
		return intensity.Source{}, "", false
	}
	return source, header.Filename, true
}

// resolveNodeConfig reads an uploaded node configuration, or builds a fixed
// min/max configuration from form values. Writes the error response itself
// on failure.
func resolveNodeConfig(c *gin.Context) (power.NodeConfig, bool) {
	file, _, err := c.Request.FormFile("node_config")
	if err == nil {
		defer file.Close()
		var cfg power.NodeConfig
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse node config: " + err.Error()})
			return nil, false
		}
		return cfg, true
	}

	minWatts, errMin := strconv.ParseFloat(c.PostForm("min_watts"), 64)
	maxWatts, errMax := strconv.ParseFloat(c.PostForm("max_watts"), 64)
	if errMin != nil || errMax != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either a node_config file or min_watts and max_watts are required"})
		return nil, false
	}

	return power.FixedMinMax(minWatts, maxWatts, 0), true
}
