package service

import (
	"context"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// SupplierService is the supplier directory.
type SupplierService struct {
	suppliers SupplierRepository
	products  ProductRepository
	logger    *zap.Logger
}

func NewSupplierService(suppliers SupplierRepository, products ProductRepository) *SupplierService {
	return &SupplierService{
		suppliers: suppliers,
		products:  products,
		logger:    util.GetLogger(),
	}
}

func (s *SupplierService) List(ctx context.Context, status models.SupplierStatus) ([]models.Supplier, error) {
	return s.suppliers.ListSuppliers(ctx, status)
}

// Get returns the supplier with the products that reference it.
func (s *SupplierService) Get(ctx context.Context, id string) (*models.Supplier, error) {
	sup, err := s.suppliers.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.Products, err = s.products.ListProductsBySupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *SupplierService) Create(ctx context.Context, in *models.SupplierInput) (sup *models.Supplier, err error) {
	ctx, span := util.StartSpan(ctx, "SupplierService.Create")
	defer func() { util.EndSpan(span, err) }()

	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	sup = &models.Supplier{}
	in.Apply(sup)

	if err := s.suppliers.CreateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	s.logger.Info("Supplier created", zap.String("supplier_id", sup.ID), zap.String("name", sup.Name))
	return sup, nil
}

func (s *SupplierService) Update(ctx context.Context, id string, in *models.SupplierInput) (sup *models.Supplier, err error) {
	ctx, span := util.StartSpan(ctx, "SupplierService.Update")
	defer func() { util.EndSpan(span, err) }()

	sup, err = s.suppliers.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(sup)

	if err := s.suppliers.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	s.logger.Info("Supplier updated", zap.String("supplier_id", sup.ID))
	return sup, nil
}

// Delete removes the supplier; products referencing it are unlinked.
func (s *SupplierService) Delete(ctx context.Context, id string) error {
	if err := s.suppliers.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Supplier deleted", zap.String("supplier_id", id))
	return nil
}
