package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	ruleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/rule"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/pagination"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

// Service управление правилами доступности.
// Каждое изменение правила и запись журнала фиксируются в одной SERIALIZABLE транзакции.
type Service struct {
	ruleRepo  RuleRepository
	logRepo   LogRepository
	txManager TransactionManager
	validator *Validator
	cache     CacheInvalidator
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр сервиса правил
func NewService(
	ruleRepo RuleRepository,
	logRepo LogRepository,
	txManager TransactionManager,
	validator *Validator,
	cache CacheInvalidator,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		ruleRepo:  ruleRepo,
		logRepo:   logRepo,
		txManager: txManager,
		validator: validator,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create создает правило, если оно не пересекается с активными правилами того же дня недели
func (s *Service) Create(ctx context.Context, req *models.CreateRuleRequest) (*models.RuleResponse, error) {
	s.logger.Info("Create: creating rule weekday=%d %s-%s by user=%d",
		req.Weekday, req.StartTime, req.EndTime, req.UserID)

	// 1. Проверяем форму до открытия транзакции
	candidate := req.ToDomainRule()
	if err := s.validator.CheckShape(candidate); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	var created *domain.AvailabilityRule
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2. Проверяем пересечения с активными правилами
		if err := s.checkConflicts(txCtx, "Create", candidate, nil); err != nil {
			return err
		}

		// 3. Сохраняем правило
		rule, err := s.ruleRepo.Create(txCtx, candidate)
		if err != nil {
			return fmt.Errorf("%w: Create - repository error: %w", ErrInternal, err)
		}

		// 4. Пишем журнал в той же транзакции
		if err := s.appendLog(txCtx, "Create", rule, domain.LogActionCreate, req.UserID); err != nil {
			return err
		}

		s.invalidateOnCommit(txCtx, domain.LogActionCreate, rule.Weekday)
		created = rule
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("Create", err)
	}

	s.logger.Info("Create: successfully created rule id=%d", created.ID)
	return models.FromDomainRule(created), nil
}

// Update накладывает патч на сохраненное правило и повторно валидирует результат
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateRuleRequest) (*models.RuleResponse, error) {
	s.logger.Info("Update: updating rule id=%d by user=%d", id, req.UserID)

	if req.IsEmpty() {
		s.logger.Warn("Update: empty patch for rule id=%d", id)
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	var updated *domain.AvailabilityRule
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Читаем правило с блокировкой
		existing, err := s.getForUpdate(txCtx, "Update", id)
		if err != nil {
			return err
		}

		// 2. Собираем полного кандидата
		candidate := existing.Clone()
		req.ApplyToRule(candidate)
		if err := s.validator.CheckShape(candidate); err != nil {
			return err
		}

		// 3. Проверяем пересечения, исключая само правило
		if err := s.checkConflicts(txCtx, "Update", candidate, &id); err != nil {
			return err
		}

		// 4. Сохраняем и пишем журнал
		rule, err := s.ruleRepo.Update(txCtx, candidate)
		if err != nil {
			if errors.Is(err, ruleRepo.ErrRuleNotFound) {
				return domain.NewNotFoundError(domain.ResourceRule, id)
			}
			return fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
		}

		if err := s.appendLog(txCtx, "Update", rule, domain.LogActionUpdate, req.UserID); err != nil {
			return err
		}

		s.invalidateOnCommit(txCtx, domain.LogActionUpdate, existing.Weekday, rule.Weekday)
		updated = rule
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("Update", err)
	}

	s.logger.Info("Update: successfully updated rule id=%d", id)
	return models.FromDomainRule(updated), nil
}

// SetActive включает или выключает правило.
// Включение заново проверяет пересечения, выключение конфликтовать не может.
// Повторная установка того же состояния ничего не меняет и не пишет журнал.
func (s *Service) SetActive(ctx context.Context, id int64, req *models.SetActiveRequest) (*models.RuleResponse, error) {
	s.logger.Info("SetActive: setting rule id=%d active=%t by user=%d", id, req.Active, req.UserID)

	action := domain.LogActionDeactivate
	if req.Active {
		action = domain.LogActionActivate
	}

	var result *domain.AvailabilityRule
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		existing, err := s.getForUpdate(txCtx, "SetActive", id)
		if err != nil {
			return err
		}

		if existing.IsActive == req.Active {
			result = existing
			return nil
		}

		candidate := existing.Clone()
		candidate.IsActive = req.Active

		if req.Active {
			overlapping, err := s.ruleRepo.FindOverlapping(txCtx, candidate.Weekday,
				candidate.StartTime, candidate.EndTime, &id)
			if err != nil {
				return fmt.Errorf("%w: SetActive - find overlapping: %w", ErrInternal, err)
			}
			if conflict := s.validator.FindConflict(candidate, overlapping, &id); conflict != nil {
				return conflict
			}
		}

		rule, err := s.ruleRepo.Update(txCtx, candidate)
		if err != nil {
			if errors.Is(err, ruleRepo.ErrRuleNotFound) {
				return domain.NewNotFoundError(domain.ResourceRule, id)
			}
			return fmt.Errorf("%w: SetActive - repository error: %w", ErrInternal, err)
		}

		if err := s.appendLog(txCtx, "SetActive", rule, action, req.UserID); err != nil {
			return err
		}

		s.invalidateOnCommit(txCtx, action, rule.Weekday)
		result = rule
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("SetActive", err)
	}

	s.logger.Info("SetActive: rule id=%d is active=%t", id, result.IsActive)
	return models.FromDomainRule(result), nil
}

// Delete физически удаляет правило. Запись журнала пишется до удаления, история сохраняется.
func (s *Service) Delete(ctx context.Context, id int64, userID int64) error {
	s.logger.Info("Delete: deleting rule id=%d by user=%d", id, userID)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		existing, err := s.getForUpdate(txCtx, "Delete", id)
		if err != nil {
			return err
		}

		if err := s.appendLog(txCtx, "Delete", existing, domain.LogActionDelete, userID); err != nil {
			return err
		}

		if err := s.ruleRepo.Delete(txCtx, id); err != nil {
			if errors.Is(err, ruleRepo.ErrRuleNotFound) {
				return domain.NewNotFoundError(domain.ResourceRule, id)
			}
			return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
		}

		s.invalidateOnCommit(txCtx, domain.LogActionDelete, existing.Weekday)
		return nil
	})
	if err != nil {
		return s.handleTxError("Delete", err)
	}

	s.logger.Info("Delete: successfully deleted rule id=%d", id)
	return nil
}

// Duplicate создает копию правила с новым id.
// Если копия с унаследованной активностью конфликтовала бы, она создается выключенной.
// Если активность явно запрошена в Overrides, конфликт возвращается как ошибка.
func (s *Service) Duplicate(ctx context.Context, id int64, req *models.DuplicateRuleRequest) (*models.RuleResponse, error) {
	s.logger.Info("Duplicate: duplicating rule id=%d by user=%d", id, req.UserID)

	var created *domain.AvailabilityRule
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Читаем исходное правило
		source, err := s.getForUpdate(txCtx, "Duplicate", id)
		if err != nil {
			return err
		}

		// 2. Собираем копию без id
		candidate := source.Clone()
		candidate.ID = 0
		req.Overrides.ApplyToRule(candidate)
		if err := s.validator.CheckShape(candidate); err != nil {
			return err
		}

		// 3. Проверяем пересечения
		if err := s.checkConflicts(txCtx, "Duplicate", candidate, nil); err != nil {
			var conflict *domain.ConflictError
			if !errors.As(err, &conflict) || req.Overrides.IsActive != nil {
				return err
			}
			s.logger.Warn("Duplicate: copy of rule id=%d conflicts with rule id=%d, creating it inactive",
				id, conflict.ConflictingRule.ID)
			candidate.IsActive = false
		}

		// 4. Сохраняем копию как новое правило
		rule, err := s.ruleRepo.Create(txCtx, candidate)
		if err != nil {
			return fmt.Errorf("%w: Duplicate - repository error: %w", ErrInternal, err)
		}

		if err := s.appendLog(txCtx, "Duplicate", rule, domain.LogActionCreate, req.UserID); err != nil {
			return err
		}

		s.invalidateOnCommit(txCtx, domain.LogActionCreate, rule.Weekday)
		created = rule
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("Duplicate", err)
	}

	s.logger.Info("Duplicate: rule id=%d duplicated as id=%d (active=%t)", id, created.ID, created.IsActive)
	return models.FromDomainRule(created), nil
}

// GetByID получает правило по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.RuleResponse, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ruleRepo.ErrRuleNotFound) {
			s.logger.Warn("GetByID: rule id=%d not found", id)
			return nil, domain.NewNotFoundError(domain.ResourceRule, id)
		}
		s.logger.Error("GetByID: repository error for rule id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainRule(rule), nil
}

// List возвращает правила по фильтру
func (s *Service) List(ctx context.Context, req *models.ListRulesRequest) (*models.RuleListResponse, error) {
	if req.Weekday != nil && (*req.Weekday < domain.MinWeekday || *req.Weekday > domain.MaxWeekday) {
		return nil, fmt.Errorf("%w: weekday must be between %d and %d", ErrInvalidInput, domain.MinWeekday, domain.MaxWeekday)
	}

	rules, err := s.ruleRepo.List(ctx, domain.RuleFilter{Weekday: req.Weekday, Active: req.Active})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainRuleList(rules), nil
}

// ListLogs возвращает страницу журнала изменений
func (s *Service) ListLogs(ctx context.Context, req *models.ListLogsRequest) (*models.LogListResponse, error) {
	filter, err := toLogFilter(req)
	if err != nil {
		s.logger.Warn("ListLogs: invalid request: %v", err)
		return nil, err
	}

	entries, total, err := s.logRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListLogs: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListLogs - repository error: %w", ErrInternal, err)
	}

	page := pagination.Params{Limit: filter.Limit, Offset: filter.Offset}
	resp := &models.LogListResponse{
		Entries: make([]models.LogEntryResponse, 0, len(entries)),
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.HasMore(total),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.FromDomainLogEntry(e))
	}

	return resp, nil
}

// getForUpdate читает правило внутри транзакции (репозиторий блокирует строку)
func (s *Service) getForUpdate(txCtx context.Context, op string, id int64) (*domain.AvailabilityRule, error) {
	rule, err := s.ruleRepo.GetByID(txCtx, id)
	if err != nil {
		if errors.Is(err, ruleRepo.ErrRuleNotFound) {
			return nil, domain.NewNotFoundError(domain.ResourceRule, id)
		}
		return nil, fmt.Errorf("%w: %s - get rule: %w", ErrInternal, op, err)
	}
	return rule, nil
}

// checkConflicts загружает пересекающиеся активные правила и прогоняет валидатор
func (s *Service) checkConflicts(txCtx context.Context, op string, candidate *domain.AvailabilityRule, excludeID *int64) error {
	if !candidate.IsActive {
		return s.validator.Validate(candidate, nil, excludeID)
	}

	overlapping, err := s.ruleRepo.FindOverlapping(txCtx, candidate.Weekday,
		candidate.StartTime, candidate.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("%w: %s - find overlapping: %w", ErrInternal, op, err)
	}

	return s.validator.Validate(candidate, overlapping, excludeID)
}

func (s *Service) appendLog(txCtx context.Context, op string, rule *domain.AvailabilityRule, action domain.LogAction, userID int64) error {
	var actorID *int64
	if userID > 0 {
		actorID = &userID
	}

	if _, err := s.logRepo.Append(txCtx, domain.NewLogEntry(rule, action, actorID)); err != nil {
		return fmt.Errorf("%w: %s - append log: %w", ErrInternal, op, err)
	}
	return nil
}

// invalidateOnCommit сбрасывает кэш затронутых дней недели только после фиксации транзакции
func (s *Service) invalidateOnCommit(txCtx context.Context, action domain.LogAction, weekdays ...int) {
	txmanager.OnCommit(txCtx, func() {
		s.cache.Invalidate(weekdays...)
		s.metrics.ObserveRuleMutation(string(action))
	})
}

// handleTxError пропускает доменные ошибки как есть и логирует инфраструктурные
func (s *Service) handleTxError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNotFound):
		s.logger.Warn("%s: rejected: %v", op, err)
		return err
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: serialization conflict persisted after retry: %v", op, err)
		return ErrConcurrentModification
	case errors.Is(err, ErrInternal):
		s.logger.Error("%s: %v", op, err)
		return err
	default:
		s.logger.Error("%s: transaction error: %v", op, err)
		return fmt.Errorf("%w: %s - transaction error: %w", ErrInternal, op, err)
	}
}

func toLogFilter(req *models.ListLogsRequest) (domain.LogFilter, error) {
	page := pagination.Params{Limit: req.Limit, Offset: req.Offset}.Normalize()
	filter := domain.LogFilter{
		RuleID: req.RuleID,
		SortBy: domain.LogSortByTimestamp,
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	if req.Action != nil {
		action := domain.LogAction(strings.ToLower(*req.Action))
		if !action.IsValid() {
			return filter, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, *req.Action)
		}
		filter.Action = &action
	}

	if req.SortBy != "" {
		sortBy := domain.LogSortField(strings.ToLower(req.SortBy))
		if !sortBy.IsValid() {
			return filter, fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, req.SortBy)
		}
		filter.SortBy = sortBy
	}

	switch strings.ToLower(req.Order) {
	case "", "desc":
		filter.Descending = true
	case "asc":
		filter.Descending = false
	default:
		return filter, fmt.Errorf("%w: order must be asc or desc", ErrInvalidInput)
	}

	return filter, nil
}
