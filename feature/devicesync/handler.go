package devicesync

import (
	"errors"

	"netsync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for device syncs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/devices", h.HandleListDevices)
	group.Post("/", h.HandleSyncAll)
	group.Post("/:device", h.HandleSync)
	group.Get("/:device/preview", h.HandlePreview)
}

// HandleListDevices returns the devices with a snapshot.
// @Summary List Devices
// @Description List the devices a snapshot is available for.
// @Tags sync
// @Produce json
// @Success 200 {array} string "Device names"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/devices [get]
func (h *Handler) HandleListDevices(c *fiber.Ctx) error {
	devices, err := h.service.Devices(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing snapshots failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if devices == nil {
		devices = []string{}
	}
	return c.JSON(devices)
}

// HandleSync reconciles one device.
// @Summary Sync Device
// @Description Reconcile the latest snapshot of a device against the system of record.
// @Tags sync
// @Produce json
// @Param device path string true "Device hostname"
// @Param dry_run query bool false "Compute the changes without applying them"
// @Success 200 {object} devicesync.Result "Sync result"
// @Failure 404 {object} map[string]string "Snapshot not found"
// @Failure 422 {object} devicesync.Result "Target scope not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/{device} [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	return h.sync(c, c.QueryBool("dry_run", false))
}

// HandlePreview returns what a sync of the device would change.
// @Summary Preview Device Sync
// @Description Dry run of a device sync. Nothing is written.
// @Tags sync
// @Produce json
// @Param device path string true "Device hostname"
// @Success 200 {object} devicesync.Result "Dry-run result"
// @Failure 404 {object} map[string]string "Snapshot not found"
// @Failure 422 {object} devicesync.Result "Target scope not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/{device}/preview [get]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	return h.sync(c, true)
}

func (h *Handler) sync(c *fiber.Ctx, dryRun bool) error {
	device := c.Params("device")
	l := logger.WithRayID(h.service.logger, c).With(zap.String("device", device))

	res, err := h.service.Sync(c.Context(), device, dryRun)
	if errors.Is(err, ErrSnapshotNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Device sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if res.Fatal {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	}
	return c.JSON(res)
}

// HandleSyncAll reconciles every device with a snapshot.
// @Summary Sync All Devices
// @Description Reconcile the latest snapshot of every device.
// @Tags sync
// @Produce json
// @Param dry_run query bool false "Compute the changes without applying them"
// @Success 200 {array} devicesync.Result "Sync results"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync [post]
func (h *Handler) HandleSyncAll(c *fiber.Ctx) error {
	results, err := h.service.SyncAll(c.Context(), c.QueryBool("dry_run", false))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Sync of all devices failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(results)
}
