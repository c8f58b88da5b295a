package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"boutique-store/internal/repository"
	"boutique-store/internal/service"
	"boutique-store/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// uploadField is the multipart field carrying a product picture.
const uploadField = "images"

// Uploader stores an incoming file and returns its public URL.
type Uploader interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ProductHandler struct {
	products  service.ProductService
	inventory service.InventoryService
	uploads   Uploader
	log       *zap.Logger
}

func NewProductHandler(products service.ProductService, inventory service.InventoryService, uploads Uploader, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inventory,
		uploads:   uploads,
		log:       log,
	}
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.products.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(products), "data": products})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.products.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// GET /api/products/filter?id=&name=&category_id=
func (h *ProductHandler) Filter(c *fiber.Ctx) error {
	var f repository.ProductFilter
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return badRequest(c, "id must be a positive integer")
		}
		f.ID = uint(id)
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return badRequest(c, "category_id must be a positive integer")
		}
		f.CategoryID = uint(id)
	}
	f.Name = c.Query("name")

	products, err := h.products.FilterProducts(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(products), "data": products})
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "invalid multipart form")
		}
		if err := decodeCreateForm(form, &req); err != nil {
			return respondError(c, err)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	staged, err := h.stageUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.products.CreateProduct(c.UserContext(), &req, staged, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"message":   "Product added successfully!",
		"productId": product.ID,
		"data":      product,
	})
}

// PATCH /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req service.UpdateProductRequest
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "invalid multipart form")
		}
		if err := decodeUpdateForm(form, &req); err != nil {
			return respondError(c, err)
		}
	} else if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}

	staged, err := h.stageUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.products.UpdateProduct(c.UserContext(), id, &req, staged, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Product updated successfully!", "product": product})
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.products.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Product deleted successfully!"})
}

// PATCH /api/products/inventory/:product_id/:color_id/:age_range_id?
func (h *ProductHandler) DecreaseQuantity(c *fiber.Ctx) error {
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	colorID, err := parseID(c, "color_id")
	if err != nil {
		return respondError(c, err)
	}
	var ageRangeID *uint
	if c.Params("age_range_id") != "" {
		id, err := parseID(c, "age_range_id")
		if err != nil {
			return respondError(c, err)
		}
		ageRangeID = &id
	}

	result, err := h.inventory.DecreaseQuantity(c.UserContext(), productID, colorID, ageRangeID)
	if err != nil {
		return respondError(c, err)
	}

	message := "Quantity decreased by 1"
	switch {
	case result.ProductRemoved:
		message = "Last item sold, product removed"
	case result.VariantRemoved:
		message = "Last item of this variant sold, variant removed"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": result})
}

// GET /api/categories
func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.products.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// GET /api/colors
func (h *ProductHandler) Colors(c *fiber.Ctx) error {
	colors, err := h.products.ListColors(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": colors})
}

// stageUpload writes the optional picture to the file store before the product change runs.
func (h *ProductHandler) stageUpload(c *fiber.Ctx) (*service.StagedFile, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	file, err := c.FormFile(uploadField)
	if err != nil {
		// no file part
		return nil, nil
	}

	name, err := storage.GenerateFilename(file.Filename)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	url, err := h.uploads.Save(c.UserContext(), name, src)
	if err != nil {
		h.log.Error("Failed to store upload", zap.String("file", name), zap.Error(err))
		return nil, err
	}
	return &service.StagedFile{Filename: name, URL: url}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func decodeCreateForm(form *multipart.Form, req *service.CreateProductRequest) error {
	req.Name, _ = formValue(form, "name")
	req.Description, _ = formValue(form, "description")

	if v, ok := formValue(form, "price"); ok && v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return invalid("price must be a number")
		}
		req.Price = price
	}
	if v, ok := formValue(form, "category_id"); ok {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return invalid("Valid category ID is required")
		}
		req.CategoryID = uint(id)
	}
	if err := decodeJSONField(form, "inventory", &req.Inventory); err != nil {
		return err
	}
	return decodeJSONField(form, "images", &req.Images)
}

func decodeUpdateForm(form *multipart.Form, req *service.UpdateProductRequest) error {
	if v, ok := formValue(form, "name"); ok && v != "" {
		req.Name = &v
	}
	if v, ok := formValue(form, "description"); ok {
		req.Description = &v
	}
	if v, ok := formValue(form, "price"); ok && v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return invalid("price must be a number")
		}
		req.Price = &price
	}
	if v, ok := formValue(form, "category_id"); ok && v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return invalid("category_id must be a positive integer")
		}
		cid := uint(id)
		req.CategoryID = &cid
	}
	if err := decodeJSONField(form, "inventory", &req.Inventory); err != nil {
		return err
	}
	return decodeJSONField(form, "images", &req.Images)
}

// decodeJSONField reads a form field holding a JSON document, as sent by the admin UI.
func decodeJSONField(form *multipart.Form, key string, dst interface{}) error {
	v, ok := formValue(form, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return invalid("%s must be valid JSON", key)
	}
	return nil
}
