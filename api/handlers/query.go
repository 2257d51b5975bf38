package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GlasgowC3lab/ichnos/internal/db"
)

type RunsQueryParams struct {
	Workflow  string `form:"workflow"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit,default=100"`
	Offset    int    `form:"offset,default=0"`
}

type TasksQueryParams struct {
	RunID  string `form:"run_id"`
	Limit  int    `form:"limit,default=100"`
	Offset int    `form:"offset,default=0"`
}

// QueryRunsHandler handles /api/footprint/v1/runs, listing persisted run
// summaries as JSON or CSV.
func QueryRunsHandler(database *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params RunsQueryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
			return
		}

		if params.Limit <= 0 || params.Limit > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 1000"})
			return
		}
		if params.Offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Offset must be non-negative"})
			return
		}

		// Default range: beginning of the current month to now.
		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := now

		if params.StartDate != "" {
			var err error
			start, err = time.Parse("2006-01-02", params.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date: " + err.Error()})
				return
			}
		}
		if params.EndDate != "" {
			var err error
			end, err = time.Parse("2006-01-02", params.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date: " + err.Error()})
				return
			}
		}

		repo := db.NewRepository(database)
		runs, total, err := repo.QueryRuns(c.Request.Context(), params.Workflow, start, end, params.Limit, params.Offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query runs: " + err.Error()})
			return
		}

		if c.GetHeader("Accept") == "text/csv" {
			var buf bytes.Buffer
			writer := csv.NewWriter(&buf)

			header := []string{"ID", "Workflow", "ModelName", "CILabel", "PUE", "WindowWidthMS",
				"Energy", "EnergyPUE", "MemoryEnergy", "MemoryEnergyPUE",
				"Emissions", "WaterFootprint", "LandFootprint", "CreatedAt"}
			if err := writer.Write(header); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV header: " + err.Error()})
				return
			}

			for _, run := range runs {
				row := []string{
					run.ID.String(),
					run.Workflow,
					run.ModelName,
					run.CILabel,
					fmt.Sprintf("%g", run.PUE),
					fmt.Sprintf("%d", run.WindowWidthMS),
					fmt.Sprintf("%g", run.Energy),
					fmt.Sprintf("%g", run.EnergyPUE),
					fmt.Sprintf("%g", run.MemoryEnergy),
					fmt.Sprintf("%g", run.MemoryEnergyPUE),
					fmt.Sprintf("%g", run.Emissions),
					fmt.Sprintf("%g", run.WaterFootprint),
					fmt.Sprintf("%g", run.LandFootprint),
					run.CreatedAt.Format(time.RFC3339),
				}
				if err := writer.Write(row); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV row: " + err.Error()})
					return
				}
			}

			writer.Flush()
			if err := writer.Error(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to flush CSV: " + err.Error()})
				return
			}

			c.Header("Content-Type", "text/csv")
			c.Header("Content-Disposition", "attachment;filename=runs.csv")
			c.String(http.StatusOK, buf.String())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"metadata": gin.H{
				"total":  total,
				"limit":  params.Limit,
				"offset": params.Offset,
			},
			"data": runs,
		})
	}
}

// QueryTasksHandler handles /api/footprint/v1/tasks, listing the per-task
// footprint records of one run.
func QueryTasksHandler(database *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params TasksQueryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
			return
		}

		if params.Limit <= 0 || params.Limit > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 1000"})
			return
		}
		if params.Offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Offset must be non-negative"})
			return
		}

		runID, err := uuid.Parse(params.RunID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run_id"})
			return
		}

		repo := db.NewRepository(database)
		records, total, err := repo.QueryTaskFootprints(c.Request.Context(), runID, params.Limit, params.Offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query task footprints: " + err.Error()})
			return
		}

		if c.GetHeader("Accept") == "text/csv" {
			var buf bytes.Buffer
			writer := csv.NewWriter(&buf)

			header := []string{"RunID", "TaskID", "Name", "Start", "End", "CPUCount",
				"AvgCPUUsage", "Memory", "Hostname", "Energy", "AverageCO2e", "AvgCI", "Water", "Land"}
			if err := writer.Write(header); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV header: " + err.Error()})
				return
			}

			for _, rec := range records {
				row := []string{
					rec.RunID.String(),
					rec.TaskID,
					rec.Name,
					fmt.Sprintf("%d", rec.Start),
					fmt.Sprintf("%d", rec.End),
					fmt.Sprintf("%d", rec.CPUCount),
					fmt.Sprintf("%g", rec.AvgCPUUsage),
					fmt.Sprintf("%g", rec.Memory),
					rec.Hostname,
					fmt.Sprintf("%g", rec.Energy),
					fmt.Sprintf("%g", rec.AverageCO2e),
					rec.AvgCI,
					fmt.Sprintf("%g", rec.Water),
					fmt.Sprintf("%g", rec.Land),
				}
				if err := writer.Write(row); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV row: " + err.Error()})
					return
				}
			}

			writer.Flush()
			if err := writer.Error(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to flush CSV: " + err.Error()})
				return
			}

			c.Header("Content-Type", "text/csv")
			c.Header("Content-Disposition", "attachment;filename=task_footprints.csv")
			c.String(http.StatusOK, buf.String())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"metadata": gin.H{
				"total":  total,
				"limit":  params.Limit,
				"offset": params.Offset,
			},
			"data": records,
		})
	}
}
