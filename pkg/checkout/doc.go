// Package checkout covers everything between a full cart and a placed
// order: delivery addresses, order creation and history, hosted
// payment sessions and the admin order views.
package checkout
