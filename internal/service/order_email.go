package service

import (
	"bytes"
	"html/template"
	"time"
)

var orderEmailTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"fallback": func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><meta http-equiv="Content-Type" content="text/html; charset=utf-8"></head>
<body style="margin:0; padding:0; font-family: Arial, sans-serif; color: #333;">
  <table width="100%" border="0" cellspacing="0" cellpadding="0">
    <tr><td align="center" style="padding:20px 0; background-color:#f8f1e9;">
      <h1 style="color:#d4a373; margin:0;">Sweet Cuddles Boutique</h1>
    </td></tr>
    <tr><td align="center" style="padding:20px 0;">
      <table width="600" border="0" cellspacing="0" cellpadding="20" style="border:1px solid #eee; background:#fff;">
        <tr><td>
          <h3 style="margin-top:0;">Customer Details</h3>
          {{with .Receipt.Customer}}
          <p><strong>Name:</strong> {{.Name}}</p>
          <p><strong>Email:</strong> {{fallback .Email "N/A"}}</p>
          <p><strong>Phone:</strong> {{.Phone}}</p>
          <p><strong>City:</strong> {{.City}}</p>
          <p><strong>Neighborhood:</strong> {{.Neighborhood}}</p>
          <p><strong>Street:</strong> {{.Street}}</p>
          <p><strong>Building:</strong> {{.Building}}</p>
          <p><strong>Floor:</strong> {{.Floor}}</p>
          {{end}}
          <h3>Order Summary</h3>
          <table width="100%" border="0" cellspacing="0" cellpadding="10" style="border-collapse:collapse; margin:20px 0;">
            <thead><tr style="background-color:#f8f1e9;">
              <th align="left">Product</th><th align="left">Color</th><th align="left">Age Range</th>
              <th align="left">Qty</th><th align="left">Price</th><th align="left">Total</th>
            </tr></thead>
            <tbody>
            {{range .Receipt.Items}}
              <tr>
                <td>{{.ProductName}}</td><td>{{.Color}}</td><td>{{.AgeRange}}</td>
                <td>{{.Quantity}}</td><td>{{.UnitPrice.StringFixed 2}} $</td><td>{{.ItemTotal.StringFixed 2}} $</td>
              </tr>
            {{end}}
            </tbody>
          </table>
          <p style="text-align:right; font-weight:bold; font-size:18px;">Grand Total: {{.Receipt.Total.StringFixed 2}} $</p>
        </td></tr>
      </table>
    </td></tr>
    <tr><td align="center" style="padding:20px 0; color:#777; font-size:14px;">
      <p>Sweet Cuddles Boutique &copy; {{.Year}}</p>
    </td></tr>
  </table>
</body>
</html>`))

func renderOrderEmail(receipt *SaleReceipt) (string, error) {
	var buf bytes.Buffer
	err := orderEmailTmpl.Execute(&buf, struct {
		Receipt *SaleReceipt
		Year    int
	}{receipt, time.Now().Year()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
