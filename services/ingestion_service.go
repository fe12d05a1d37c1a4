package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"geotrack/interfaces"
	"geotrack/models"
	"geotrack/utils"

	"github.com/sirupsen/logrus"
)

// IngestionService is the engine's only inbound surface. It accepts live
// single reports and offline batch syncs, orders and deduplicates them,
// feeds the detector one report at a time per device, and fans detected
// events out to the publisher.
//
// Every report is an independently committed micro-transaction: the raw
// report is persisted first, then membership mutations are applied. A
// crash or cancellation mid-batch leaves a consistent prefix applied, and
// resubmitting the batch is a safe no-op thanks to the (deviceId,
// observedAt) idempotence check.
type IngestionService struct {
	locationRepo interfaces.LocationRepository
	deviceRepo   interfaces.DeviceRepository
	detector     *DetectorService
	publisher    interfaces.EventPublisher
	validator    *utils.ValidationService
	deviceLocks  *utils.KeyedMutex
	storeTimeout time.Duration
}

func NewIngestionService(
	locationRepo interfaces.LocationRepository,
	deviceRepo interfaces.DeviceRepository,
	detector *DetectorService,
	publisher interfaces.EventPublisher,
	storeTimeout time.Duration,
) *IngestionService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &IngestionService{
		locationRepo: locationRepo,
		deviceRepo:   deviceRepo,
		detector:     detector,
		publisher:    publisher,
		validator:    utils.NewValidationService(),
		deviceLocks:  utils.NewKeyedMutex(),
		storeTimeout: storeTimeout,
	}
}

// IngestLive processes a single real-time report.
func (is *IngestionService) IngestLive(ctx context.Context, deviceID string, req models.LocationReportRequest) (*models.ReportResult, error) {
	report, err := is.buildReport(deviceID, req, false)
	if err != nil {
		return nil, err
	}

	is.deviceLocks.Lock(deviceID)
	defer is.deviceLocks.Unlock(deviceID)

	snapshot, err := is.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, procErr := is.processReport(ctx, report, snapshot)
	if procErr != nil {
		return nil, procErr
	}

	is.touchLastSeen(ctx, deviceID, report.ObservedAt)

	return &result, nil
}

// IngestBatch processes an offline resynchronization for one device.
// Reports may arrive in arbitrary order; they are sorted by observedAt
// ascending before evaluation, which is what turns an unordered replay
// into the strictly ordered stream the detector requires. Failures are
// per-report: processing continues with the next report and the caller
// gets a result for every submitted one.
func (is *IngestionService) IngestBatch(ctx context.Context, deviceID string, req models.BatchSyncRequest) (*models.BatchSyncResponse, error) {
	if len(req.Reports) == 0 {
		return nil, utils.NewValidationError("batch contains no reports")
	}

	type pending struct {
		report  *models.LocationReport
		result  models.ReportResult
		settled bool
	}

	items := make([]*pending, 0, len(req.Reports))
	for _, r := range req.Reports {
		report, err := is.buildReport(deviceID, r, true)
		if err != nil {
			items = append(items, &pending{
				result: models.ReportResult{
					Status: models.ReportStatusFailed,
					Error:  err.Error(),
				},
				settled: true,
			})
			continue
		}
		items = append(items, &pending{
			report: report,
			result: models.ReportResult{ObservedAt: report.ObservedAt},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].report == nil || items[j].report == nil {
			return items[j].report == nil && items[i].report != nil
		}
		return items[i].report.ObservedAt.Before(items[j].report.ObservedAt)
	})

	is.deviceLocks.Lock(deviceID)
	defer is.deviceLocks.Unlock(deviceID)

	// One consistent geofence view for the whole batch.
	snapshot, err := is.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var maxObserved time.Time
	var prevObserved time.Time
	for _, item := range items {
		if item.settled {
			continue
		}

		// Cancellation stands on whatever prefix already committed.
		if err := ctx.Err(); err != nil {
			item.result.Status = models.ReportStatusFailed
			item.result.Error = fmt.Sprintf("ingestion cancelled: %v", err)
			item.settled = true
			continue
		}

		// Same-timestamp duplicates within the batch collapse to one.
		if !prevObserved.IsZero() && item.report.ObservedAt.Equal(prevObserved) {
			item.result.Status = models.ReportStatusDuplicate
			item.settled = true
			continue
		}
		prevObserved = item.report.ObservedAt

		item.result, _ = is.processReport(ctx, item.report, snapshot)
		item.settled = true

		if item.result.Status != models.ReportStatusFailed && item.report.ObservedAt.After(maxObserved) {
			maxObserved = item.report.ObservedAt
		}
	}

	if !maxObserved.IsZero() {
		is.touchLastSeen(ctx, deviceID, maxObserved)
	}

	resp := &models.BatchSyncResponse{DeviceID: deviceID}
	for _, item := range items {
		resp.Results = append(resp.Results, item.result)
		switch item.result.Status {
		case models.ReportStatusProcessed:
			resp.Processed++
		case models.ReportStatusDuplicate:
			resp.Duplicate++
		default:
			resp.Failed++
		}
	}

	return resp, nil
}

// fetchSnapshot loads the active geofence view for one ingestion unit.
func (is *IngestionService) fetchSnapshot(ctx context.Context) ([]models.Geofence, error) {
	storeCtx, cancel := context.WithTimeout(ctx, is.storeTimeout)
	defer cancel()

	snapshot, err := is.detector.Snapshot(storeCtx)
	if err != nil {
		return nil, is.classifyError(err, "failed to load active geofences")
	}
	return snapshot, nil
}

// processReport is the per-report micro-transaction: persist raw, then
// detect, then publish. The caller must hold the device lock.
func (is *IngestionService) processReport(ctx context.Context, report *models.LocationReport, snapshot []models.Geofence) (models.ReportResult, error) {
	result := models.ReportResult{ObservedAt: report.ObservedAt}

	storeCtx, cancel := context.WithTimeout(ctx, is.storeTimeout)
	defer cancel()

	// Raw report first. Membership state is only ever mutated for reports
	// that are durably recorded. A duplicate raw report still goes through
	// detection: if the previous attempt failed mid-evaluation, the retry
	// completes it, and the per-geofence lastEventAt gate makes pairs that
	// were already applied a no-op.
	err := is.locationRepo.Create(storeCtx, report)
	duplicate := errors.Is(err, utils.ErrDuplicateReport)
	if err != nil && !duplicate {
		classified := is.classifyError(err, "failed to persist location report")
		result.Status = models.ReportStatusFailed
		result.Error = classified.Error()
		return result, classified
	}

	events, detectErr := is.detector.Evaluate(storeCtx, report, snapshot)
	result.Events = events

	// Fire-and-forget fan-out. Publisher failures never surface here.
	for _, event := range events {
		is.publisher.PublishGeofenceEvent(event)
	}

	if detectErr != nil {
		// Events already committed for earlier geofences stand and were
		// published; the report as a whole is reported as failed.
		classified := is.classifyError(detectErr, "transition detection failed")
		result.Status = models.ReportStatusFailed
		result.Error = classified.Error()
		return result, classified
	}

	if duplicate {
		result.Status = models.ReportStatusDuplicate
	} else {
		result.Status = models.ReportStatusProcessed
	}
	return result, nil
}

func (is *IngestionService) buildReport(deviceID string, req models.LocationReportRequest, replayed bool) (*models.LocationReport, error) {
	if deviceID == "" {
		return nil, utils.NewValidationError("device ID is required")
	}

	if validationErrors := is.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	if !utils.IsValidCoordinate(req.Latitude, req.Longitude) {
		return nil, utils.NewValidationError("latitude or longitude out of range")
	}

	observedAt, err := time.Parse(time.RFC3339, req.ObservedAt)
	if err != nil {
		return nil, utils.NewValidationError("observedAt must be an RFC3339 timestamp")
	}

	return &models.LocationReport{
		DeviceID:       deviceID,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		Altitude:       req.Altitude,
		Speed:          req.Speed,
		Bearing:        req.Bearing,
		BatteryLevel:   req.BatteryLevel,
		IsCharging:     req.IsCharging,
		NetworkType:    req.NetworkType,
		Source:         req.Source,
		ObservedAt:     observedAt.UTC(),
		IsReplayed:     replayed,
	}, nil
}

func (is *IngestionService) classifyError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.NewDependencyTimeoutError(message, err)
	}
	if serviceErr, ok := utils.GetServiceError(err); ok {
		return serviceErr
	}
	return utils.NewInternalError(message, err)
}

// touchLastSeen updates device bookkeeping. Best-effort: a failure here
// never fails the ingestion call.
func (is *IngestionService) touchLastSeen(ctx context.Context, deviceID string, at time.Time) {
	storeCtx, cancel := context.WithTimeout(ctx, is.storeTimeout)
	defer cancel()

	if err := is.deviceRepo.TouchLastSeen(storeCtx, deviceID, at); err != nil {
		logrus.Warnf("Failed to update last seen for device %s: %v", deviceID, err)
	}
}
