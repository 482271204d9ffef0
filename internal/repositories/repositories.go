package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/tileflow/services/planning/internal/models"
)

// ProductRepository provides access to the product catalog
type ProductRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ProductRepository {
	return &ProductRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.readOnlyDB.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get product by ID")
	}
	return &product, nil
}

// GetBySKU gets a product by its SKU
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.readOnlyDB.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get product by SKU")
	}
	return &product, nil
}

// ListActive gets all active products ordered by SKU
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.readOnlyDB.WithContext(ctx).
		Where("active = ?", true).
		Order("sku ASC").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active products")
	}
	return products, nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// InventorySnapshotRepository provides access to inventory snapshots
type InventorySnapshotRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewInventorySnapshotRepository creates a new repository
func NewInventorySnapshotRepository(db *gorm.DB, readOnlyDB *gorm.DB) *InventorySnapshotRepository {
	return &InventorySnapshotRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Append records a new snapshot. Snapshots are immutable once created.
func (r *InventorySnapshotRepository) Append(ctx context.Context, snapshot *models.InventorySnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// LatestForProduct gets the most recent snapshot for a product, or nil if
// none has been taken yet
func (r *InventorySnapshotRepository) LatestForProduct(ctx context.Context, productID uuid.UUID) (*models.InventorySnapshot, error) {
	var snapshot models.InventorySnapshot
	err := r.readOnlyDB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("snapshot_date DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest snapshot")
	}
	return &snapshot, nil
}

// LatestPerProduct gets the most recent snapshot for every product
func (r *InventorySnapshotRepository) LatestPerProduct(ctx context.Context) ([]models.InventorySnapshot, error) {
	var snapshots []models.InventorySnapshot
	err := r.readOnlyDB.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (product_id) *
		     FROM inventory_snapshots
		     ORDER BY product_id, snapshot_date DESC`).
		Scan(&snapshots).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest snapshots")
	}
	return snapshots, nil
}

// SaleRepository provides access to weekly sales records
type SaleRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewSaleRepository creates a new repository
func NewSaleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *SaleRepository {
	return &SaleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Append records a new weekly sale row, filling the normalized customer
// grouping key when the caller did not
func (r *SaleRepository) Append(ctx context.Context, sale *models.Sale) error {
	if sale.Customer != nil && sale.CustomerNormalized == nil {
		normalized := NormalizeCustomer(*sale.Customer)
		sale.CustomerNormalized = &normalized
	}
	return r.db.WithContext(ctx).Create(sale).Error
}

// accentFold maps the Latin accented runes that show up in customer names to
// their ASCII base letters
var accentFold = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ñ", "N", "Ç", "C",
)

// NormalizeCustomer folds a customer name to the uppercase ASCII grouping key
func NormalizeCustomer(name string) string {
	return accentFold.Replace(strings.ToUpper(strings.Join(strings.Fields(name), " ")))
}

// RecentWeeks gets the trailing sales window for a product, newest first
func (r *SaleRepository) RecentWeeks(ctx context.Context, productID uuid.UUID, weeks int) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.readOnlyDB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("week_start DESC").
		Limit(weeks).
		Find(&sales).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent sales")
	}
	return sales, nil
}

// SinceWeek gets all sales with week_start at or after the cutoff,
// ordered by product then week
func (r *SaleRepository) SinceWeek(ctx context.Context, cutoff time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.readOnlyDB.WithContext(ctx).
		Where("week_start >= ?", cutoff).
		Order("product_id, week_start ASC").
		Find(&sales).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sales since cutoff")
	}
	return sales, nil
}

// FactoryAvailabilityRepository provides access to reported factory supply
type FactoryAvailabilityRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewFactoryAvailabilityRepository creates a new repository
func NewFactoryAvailabilityRepository(db *gorm.DB, readOnlyDB *gorm.DB) *FactoryAvailabilityRepository {
	return &FactoryAvailabilityRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Append records a new availability report
func (r *FactoryAvailabilityRepository) Append(ctx context.Context, availability *models.FactoryAvailability) error {
	return r.db.WithContext(ctx).Create(availability).Error
}

// LatestForProduct gets the most recent availability report for a product
func (r *FactoryAvailabilityRepository) LatestForProduct(ctx context.Context, productID uuid.UUID) (*models.FactoryAvailability, error) {
	var availability models.FactoryAvailability
	err := r.readOnlyDB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("report_date DESC").
		First(&availability).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest factory availability")
	}
	return &availability, nil
}

// ReportedByProduct gets each product's most recent reported quantity.
// Only the latest report per product counts; older reports are history.
func (r *FactoryAvailabilityRepository) ReportedByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []ProductPipeline
	err := r.readOnlyDB.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (product_id) product_id, quantity_m2 AS total_m2
		     FROM factory_availabilities
		     ORDER BY product_id, report_date DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate factory availability")
	}

	result := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.ProductID] = row.TotalM2
	}
	return result, nil
}

// ProductPipeline is the aggregated open supply for one product
type ProductPipeline struct {
	ProductID uuid.UUID       `json:"product_id"`
	TotalM2   decimal.Decimal `json:"total_m2"`
}

// FactoryOrderRepository provides access to factory orders and items
type FactoryOrderRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewFactoryOrderRepository creates a new repository
func NewFactoryOrderRepository(db *gorm.DB, readOnlyDB *gorm.DB) *FactoryOrderRepository {
	return &FactoryOrderRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets an order with its items
func (r *FactoryOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FactoryOrder, error) {
	var order models.FactoryOrder
	err := r.readOnlyDB.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get factory order by ID")
	}
	return &order, nil
}

// Create creates an order together with its items
func (r *FactoryOrderRepository) Create(ctx context.Context, order *models.FactoryOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// ListOpen gets active orders that have not shipped yet
func (r *FactoryOrderRepository) ListOpen(ctx context.Context) ([]models.FactoryOrder, error) {
	var orders []models.FactoryOrder
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Items").
		Where("active = ? AND status <> ?", true, models.OrderStatusShipped).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list open factory orders")
	}
	return orders, nil
}

// OpenQuantityByProduct sums ordered quantity on open orders per product
func (r *FactoryOrderRepository) OpenQuantityByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []ProductPipeline
	err := r.readOnlyDB.WithContext(ctx).
		Raw(`SELECT i.product_id, COALESCE(SUM(i.ordered_m2), 0) AS total_m2
		     FROM factory_order_items i
		     JOIN factory_orders o ON o.id = i.factory_order_id
		     WHERE o.active = true AND o.status <> ? AND o.deleted_at IS NULL
		     GROUP BY i.product_id`, models.OrderStatusShipped).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate open order quantities")
	}

	result := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.ProductID] = row.TotalM2
	}
	return result, nil
}

// UpdateStatus persists an already validated status move
func (r *FactoryOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.FactoryOrder{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update factory order status")
	}
	if result.RowsAffected == 0 {
		return errors.New("no factory order updated")
	}
	return nil
}

// ProductionScheduleRepository provides access to factory-floor schedule
// entries
type ProductionScheduleRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewProductionScheduleRepository creates a new repository
func NewProductionScheduleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ProductionScheduleRepository {
	return &ProductionScheduleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByKey gets an entry by its natural key
func (r *ProductionScheduleRepository) GetByKey(ctx context.Context, referencia, plant, sourceMonth string) (*models.ProductionScheduleEntry, error) {
	var entry models.ProductionScheduleEntry
	err := r.readOnlyDB.WithContext(ctx).
		Where("referencia = ? AND plant = ? AND source_month = ?", referencia, plant, sourceMonth).
		First(&entry).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get production schedule entry")
	}
	return &entry, nil
}

// GetByID gets an entry by ID
func (r *ProductionScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductionScheduleEntry, error) {
	var entry models.ProductionScheduleEntry
	err := r.readOnlyDB.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get production schedule entry by ID")
	}
	return &entry, nil
}

// Upsert creates or refreshes an entry on its natural key
func (r *ProductionScheduleRepository) Upsert(ctx context.Context, entry *models.ProductionScheduleEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "referencia"}, {Name: "plant"}, {Name: "source_month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed_m2", "status", "updated_at",
			}),
		}).
		Create(entry).Error
}

// Save persists changes to an entry
func (r *ProductionScheduleRepository) Save(ctx context.Context, entry *models.ProductionScheduleEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// SchedulableByProduct sums remaining quantity on entries that can still
// be increased (status SCHEDULED), per product
func (r *ProductionScheduleRepository) SchedulableByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []ProductPipeline
	err := r.readOnlyDB.WithContext(ctx).
		Raw(`SELECT product_id, COALESCE(SUM(requested_m2 - completed_m2), 0) AS total_m2
		     FROM production_schedule_entries
		     WHERE status = ? AND product_id IS NOT NULL
		     GROUP BY product_id`, models.ScheduleStatusScheduled).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate schedulable production")
	}

	result := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.ProductID] = row.TotalM2
	}
	return result, nil
}

// SettingRepository provides access to the key/value settings table
type SettingRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewSettingRepository creates a new repository
func NewSettingRepository(db *gorm.DB, readOnlyDB *gorm.DB) *SettingRepository {
	return &SettingRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Get gets a setting row by key
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.readOnlyDB.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get setting")
	}
	return &setting, nil
}

// List gets all settings ordered by key
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.readOnlyDB.WithContext(ctx).Order("key ASC").Find(&settings).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}
	return settings, nil
}

// Upsert writes a setting value, last write wins
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}
