package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
)

// ListTransactions fetches the combined customer-order and POS-sale list.
func (c *Client) ListTransactions(ctx context.Context, limit int) (TransactionList, error) {
	path := "/admin/orders"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out TransactionList
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// GetTransaction fetches one order or sale with its items.
func (c *Client) GetTransaction(ctx context.Context, id int) (TransactionDetail, error) {
	var out TransactionDetail
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/admin/orders/%d", id), nil, &out)
	return out, err
}

// UpdateOrderStatus sets a customer order's status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int, status string) error {
	body := map[string]string{"status": status}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/admin/orders/%d/status", id), body, nil)
}

// ListProducts returns the full inventory.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/products/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// AddProduct creates a product.
func (c *Client) AddProduct(ctx context.Context, in ProductInput) (Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/admin/products/add", in, &out)
	return out.Product, err
}

// UpdateProduct replaces a product's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, id int, in ProductInput) (Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/admin/products/update/%d", id), in, &out)
	return out.Product, err
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/products/delete/%d", id), nil, nil)
}

// UploadProductImage sends an image as multipart field "image" and returns
// the URL the backend stored it under.
func (c *Client) UploadProductImage(ctx context.Context, filename string, image io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("image", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, image)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/admin/products/upload-image", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

// ProductOrders returns the ids of orders containing a product.
func (c *Client) ProductOrders(ctx context.Context, id int) ([]int, error) {
	var out struct {
		OrderIDs []int `json:"order_ids"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/admin/products/%d/orders", id), nil, &out); err != nil {
		return nil, err
	}
	return out.OrderIDs, nil
}

// Revenue returns the revenue breakdown.
func (c *Client) Revenue(ctx context.Context) (Revenue, error) {
	var out struct {
		Revenue Revenue `json:"revenue"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/admin/revenue", nil, &out)
	return out.Revenue, err
}

// ReportCheckpoints returns the last reset per report period.
func (c *Client) ReportCheckpoints(ctx context.Context) (map[string]Checkpoint, error) {
	var out struct {
		Checkpoints map[string]Checkpoint `json:"checkpoints"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/reports/checkpoints", nil, &out); err != nil {
		return nil, err
	}
	if out.Checkpoints == nil {
		out.Checkpoints = map[string]Checkpoint{}
	}
	return out.Checkpoints, nil
}

// ResetReport moves a period's report baseline to now and returns the
// backend's confirmation message, if any.
func (c *Client) ResetReport(ctx context.Context, period string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	body := map[string]string{"period": period}
	if err := c.doJSON(ctx, http.MethodPost, "/admin/reports/reset", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ReportPDF opens the PDF report for a period. The caller closes the body.
func (c *Client) ReportPDF(ctx context.Context, period string) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/admin/reports/pdf?period="+url.QueryEscape(period), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/pdf")
	resp, err := c.client.Do(req)
	if err != nil {
		c.setError(err)
		return nil, "", transportError(err)
	}
	c.setSeen()
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		var env envelope
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &env)
		return nil, "", businessError(resp.StatusCode, env.Error)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
