package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxReferenceImages = 5

// CustomRequestInput is a design request as submitted by a customer or guest
type CustomRequestInput struct {
	Name            string
	Email           string
	Description     string
	ShirtColor      string
	ShirtStyle      string
	BaseProductID   string
	BaseProductName string
	BaseImageURL    string
	ReferenceImages []*multipart.FileHeader
}

// MockupInput is a draft an admin attaches to a request
type MockupInput struct {
	Name  string
	Price decimal.Decimal
	URL   string
	Image *multipart.FileHeader
}

// CustomRequestService runs the custom design intake and mockup review workflow
type CustomRequestService struct {
	db           *gorm.DB
	images       ImageService
	locker       Locker
	audit        AuditLog
	imagesBucket string
	log          *zap.Logger
}

// NewCustomRequestService creates a custom request service
func NewCustomRequestService(db *gorm.DB, images ImageService, locker Locker, audit AuditLog, imagesBucket string, log *zap.Logger) *CustomRequestService {
	return &CustomRequestService{db: db, images: images, locker: locker, audit: audit, imagesBucket: imagesBucket, log: log}
}

// Submit records a new request. Logged-in users are identified by their
// profile; guests must give a name and email.
func (s *CustomRequestService) Submit(ctx context.Context, requester *models.Profile, in CustomRequestInput) (models.CustomDesignRequest, error) {
	req := models.CustomDesignRequest{
		Description:     strings.TrimSpace(in.Description),
		ShirtColor:      strings.TrimSpace(in.ShirtColor),
		ShirtStyle:      strings.TrimSpace(in.ShirtStyle),
		Status:          models.RequestUnderReview,
		BaseProductID:   optional(strings.TrimSpace(in.BaseProductID)),
		BaseProductName: in.BaseProductName,
		BaseImageURL:    in.BaseImageURL,
		ReferenceImages: []string{},
		Mockups:         []models.Mockup{},
	}

	owner := "guest"
	if requester != nil {
		owner = requester.Auth0ID
		req.UserID = &requester.Auth0ID
		req.UserName = requester.Name
		req.UserEmail = requester.Email
		if req.UserName == "" {
			req.UserName, _, _ = strings.Cut(requester.Email, "@")
		}
	} else {
		req.UserName = strings.TrimSpace(in.Name)
		req.UserEmail = strings.TrimSpace(in.Email)
		if req.UserName == "" || req.UserEmail == "" {
			return models.CustomDesignRequest{}, ValidationError("MISSING_CONTACT", "Please provide your name and email if you're not logged in.")
		}
	}
	if req.Description == "" {
		return models.CustomDesignRequest{}, ValidationError("MISSING_DESCRIPTION", "Please describe your design idea or modifications.")
	}
	if len(in.ReferenceImages) > maxReferenceImages {
		return models.CustomDesignRequest{}, ValidationError("TOO_MANY_IMAGES", fmt.Sprintf("At most %d reference images can be attached.", maxReferenceImages))
	}

	var uploaded []string
	for _, fh := range in.ReferenceImages {
		img, err := s.images.UploadImage(ctx, s.imagesBucket, "custom_requests/"+owner, fh)
		if err != nil {
			s.discard(ctx, uploaded)
			return models.CustomDesignRequest{}, uploadError(err)
		}
		uploaded = append(uploaded, img.Key)
		req.ReferenceImages = append(req.ReferenceImages, img.URL)
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		s.log.Error("failed to create custom request", zap.Error(err))
		s.discard(ctx, uploaded)
		return models.CustomDesignRequest{}, StoreError(err)
	}

	s.log.Info("custom request submitted", zap.String("request_id", req.ID), zap.Bool("guest", requester == nil))
	return req, nil
}

// discard removes images uploaded for a request that was never stored
func (s *CustomRequestService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.images.DeleteImage(ctx, s.imagesBucket, key); err != nil {
			s.log.Warn("reference image left in storage", zap.String("key", key), zap.Error(err))
		}
	}
}

// Get returns a request visible to the viewer: its owner or an admin. A
// guest request submitted with the viewer's email becomes theirs here.
func (s *CustomRequestService) Get(ctx context.Context, viewerID string, isAdmin bool, id string) (models.CustomDesignRequest, error) {
	req, err := s.load(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return models.CustomDesignRequest{}, err
	}
	if isAdmin {
		return req, nil
	}
	if req.UserID == nil && viewerID != "" {
		if err := s.claimGuestRequests(ctx, viewerID); err != nil {
			return models.CustomDesignRequest{}, err
		}
		if req, err = s.load(ctx, s.db.WithContext(ctx), id); err != nil {
			return models.CustomDesignRequest{}, err
		}
	}
	if req.UserID == nil || *req.UserID != viewerID {
		return models.CustomDesignRequest{}, NotFoundError("Custom request")
	}
	return req, nil
}

// claimGuestRequests gives the user every guest request submitted with the
// email on their profile.
func (s *CustomRequestService) claimGuestRequests(ctx context.Context, userID string) error {
	var profile models.Profile
	err := s.db.WithContext(ctx).Select("auth0_id", "email").First(&profile, "auth0_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return StoreError(err)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&models.CustomDesignRequest{}).
		Where("user_id IS NULL AND LOWER(user_email) = ?", email).
		Update("user_id", userID)
	if res.Error != nil {
		s.log.Error("failed to claim guest requests", zap.String("user_id", userID), zap.Error(res.Error))
		return StoreError(res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("guest requests claimed", zap.String("user_id", userID), zap.Int64("count", res.RowsAffected))
	}
	return nil
}

// ListMine returns the viewer's requests, newest first, including guest
// requests made with their email.
func (s *CustomRequestService) ListMine(ctx context.Context, userID string) ([]models.CustomDesignRequest, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if err := s.claimGuestRequests(ctx, userID); err != nil {
		return nil, err
	}
	reqs := []models.CustomDesignRequest{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, StoreError(err)
	}
	return reqs, nil
}

// ListAll returns every request, optionally filtered by status
func (s *CustomRequestService) ListAll(ctx context.Context, status models.RequestStatus) ([]models.CustomDesignRequest, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		if !status.Valid() {
			return nil, ValidationError("INVALID_STATUS", fmt.Sprintf("Unknown request status %q", status))
		}
		q = q.Where("status = ?", string(status))
	}
	reqs := []models.CustomDesignRequest{}
	if err := q.Find(&reqs).Error; err != nil {
		return nil, StoreError(err)
	}
	return reqs, nil
}

// ResolveMockup returns a mockup the user may buy: the request is theirs,
// still open and not yet paid for.
func (s *CustomRequestService) ResolveMockup(ctx context.Context, userID, requestID, mockupID string) (models.CustomDesignRequest, models.Mockup, error) {
	req, err := s.Get(ctx, userID, false, requestID)
	if err != nil {
		return models.CustomDesignRequest{}, models.Mockup{}, err
	}
	if req.OrderID != nil || req.Status.IsTerminal() {
		return models.CustomDesignRequest{}, models.Mockup{}, ErrUnavailable
	}
	if mockupID == "" && len(req.Mockups) > 0 {
		mockupID = req.Mockups[len(req.Mockups)-1].ID
	}
	mockup, ok := req.FindMockup(mockupID)
	if !ok {
		return models.CustomDesignRequest{}, models.Mockup{}, NotFoundError("Mockup")
	}
	return req, mockup, nil
}

// AddMockup appends a mockup, moves the request to Mockup Ready and sets
// the request's final price to the new mockup's price.
func (s *CustomRequestService) AddMockup(ctx context.Context, actor, requestID string, in MockupInput) (models.CustomDesignRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	if in.Name == "" || (in.URL == "" && in.Image == nil) || !in.Price.IsPositive() {
		return models.CustomDesignRequest{}, ValidationError("INVALID_MOCKUP", "All mockup fields are required and the price must be positive.")
	}

	var uploadedKey string
	if in.Image != nil {
		img, err := s.images.UploadImage(ctx, s.imagesBucket, "mockups/"+requestID, in.Image)
		if err != nil {
			return models.CustomDesignRequest{}, uploadError(err)
		}
		uploadedKey, in.URL = img.Key, img.URL
	}

	var req models.CustomDesignRequest
	var from models.RequestStatus
	var mockup models.Mockup
	err := s.withRequestLock(ctx, requestID, func(tx *gorm.DB) error {
		var err error
		if req, err = s.load(ctx, tx, requestID); err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return &Error{Kind: KindRule, Code: "REQUEST_CLOSED", Message: fmt.Sprintf("Mockups cannot be added to a request that is %s", req.Status)}
		}
		from = req.Status

		mockup = models.Mockup{ID: newMockupID(req), Name: in.Name, Price: in.Price, URL: in.URL}
		price := in.Price
		req.Mockups = append(req.Mockups, mockup)
		req.Status = models.RequestMockupReady
		req.FinalPrice = &price

		return tx.Model(&req).Select("mockups", "status", "final_price").Updates(&models.CustomDesignRequest{
			Mockups:    req.Mockups,
			Status:     req.Status,
			FinalPrice: req.FinalPrice,
		}).Error
	})
	if err != nil {
		if uploadedKey != "" {
			s.discard(ctx, []string{uploadedKey})
		}
		return models.CustomDesignRequest{}, s.requestError(requestID, err)
	}

	s.record(ctx, AuditEntry{
		Entity:   "custom_request",
		EntityID: requestID,
		Action:   AuditRequestMockupAdded,
		Actor:    actor,
		From:     string(from),
		To:       string(req.Status),
		Data:     map[string]interface{}{"mockup_id": mockup.ID, "price": mockup.Price.String()},
	})
	return req, nil
}

// newMockupID is mockup-{request}-{unix millis}, bumped past any id already used
func newMockupID(req models.CustomDesignRequest) string {
	ts := time.Now().UnixMilli()
	for {
		id := fmt.Sprintf("mockup-%s-%d", req.ID, ts)
		if _, taken := req.FindMockup(id); !taken {
			return id
		}
		ts++
	}
}

// DeleteMockup removes one mockup from a request
func (s *CustomRequestService) DeleteMockup(ctx context.Context, actor, requestID, mockupID string) (models.CustomDesignRequest, error) {
	var req models.CustomDesignRequest
	err := s.withRequestLock(ctx, requestID, func(tx *gorm.DB) error {
		var err error
		if req, err = s.load(ctx, tx, requestID); err != nil {
			return err
		}
		kept := make([]models.Mockup, 0, len(req.Mockups))
		for _, m := range req.Mockups {
			if m.ID != mockupID {
				kept = append(kept, m)
			}
		}
		if len(kept) == len(req.Mockups) {
			return NotFoundError("Mockup")
		}
		req.Mockups = kept
		return tx.Model(&req).Select("mockups").Updates(&models.CustomDesignRequest{Mockups: kept}).Error
	})
	if err != nil {
		return models.CustomDesignRequest{}, s.requestError(requestID, err)
	}
	s.log.Info("mockup deleted", zap.String("request_id", requestID), zap.String("mockup_id", mockupID), zap.String("actor", actor))
	return req, nil
}

// UpdateStatus sets a request's status. finalPrice is only applied when
// the request is completed.
func (s *CustomRequestService) UpdateStatus(ctx context.Context, actor, requestID string, status models.RequestStatus, finalPrice *decimal.Decimal) (models.CustomDesignRequest, error) {
	if !status.Valid() {
		return models.CustomDesignRequest{}, ValidationError("INVALID_STATUS", fmt.Sprintf("Unknown request status %q", status))
	}
	if finalPrice != nil && finalPrice.IsNegative() {
		return models.CustomDesignRequest{}, ValidationError("INVALID_PRICE", "Final price cannot be negative")
	}

	var req models.CustomDesignRequest
	var from models.RequestStatus
	err := s.withRequestLock(ctx, requestID, func(tx *gorm.DB) error {
		var err error
		if req, err = s.load(ctx, tx, requestID); err != nil {
			return err
		}
		if status == models.RequestMockupReady && len(req.Mockups) == 0 {
			return &Error{Kind: KindRule, Code: "NO_MOCKUPS", Message: "Add a mockup before marking the request as Mockup Ready"}
		}
		from = req.Status
		req.Status = status
		columns := []interface{}{"final_price"}
		if status == models.RequestCompleted && finalPrice != nil {
			req.FinalPrice = finalPrice
		} else {
			columns = nil
		}
		return tx.Model(&req).Select("status", columns...).Updates(&models.CustomDesignRequest{
			Status:     status,
			FinalPrice: req.FinalPrice,
		}).Error
	})
	if err != nil {
		return models.CustomDesignRequest{}, s.requestError(requestID, err)
	}

	s.record(ctx, AuditEntry{
		Entity:   "custom_request",
		EntityID: requestID,
		Action:   AuditRequestStatus,
		Actor:    actor,
		From:     string(from),
		To:       string(status),
	})
	return req, nil
}

func (s *CustomRequestService) load(ctx context.Context, db *gorm.DB, id string) (models.CustomDesignRequest, error) {
	var req models.CustomDesignRequest
	err := db.First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CustomDesignRequest{}, NotFoundError("Custom request")
	}
	if err != nil {
		return models.CustomDesignRequest{}, StoreError(err)
	}
	return req, nil
}

// withRequestLock serializes read-modify-write of a request's mockup list
func (s *CustomRequestService) withRequestLock(ctx context.Context, requestID string, fn func(tx *gorm.DB) error) error {
	unlock, err := s.locker.Lock(ctx, "custom_request:"+requestID, orderLockTTL)
	if err != nil {
		return &Error{Kind: KindConflict, Code: "REQUEST_BUSY", Message: "Request is being updated, please retry", Err: err}
	}
	defer unlock()
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *CustomRequestService) requestError(requestID string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	s.log.Error("custom request write failed", zap.String("request_id", requestID), zap.Error(err))
	return StoreError(err)
}

func (s *CustomRequestService) record(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}
