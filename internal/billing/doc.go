// Package billing opens hosted payment pages for subscriptions.
//
// A user who already pays is sent to the provider's billing portal; anyone
// else gets a subscription checkout for the requested price. Provider hides
// the payment SDK so the decision logic can be tested without network
// access; Stripe is the production implementation.
package billing
