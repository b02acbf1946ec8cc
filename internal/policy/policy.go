// Package policy holds the pure authorization rules for the permission
// queue. Handlers and services call these predicates and translate a
// false result into a permission error; the rules themselves never
// touch storage.
package policy

import "github.com/noah-isme/sma-izin-api/internal/models"

// CanDeleteEntry reports whether the identity may remove a queue
// entry: admins may remove any entry, staff only entries they added.
func CanDeleteEntry(claims *models.JWTClaims, entry *models.QueueEntry) bool {
	if claims == nil || entry == nil {
		return false
	}
	if claims.Role == models.RoleAdmin {
		return true
	}
	return entry.AddedByUserID == claims.UserID
}

// CanMutateQueue reports whether today's queue accepts removals. Once
// the day is confirmed no one, including admins, may remove entries.
func CanMutateQueue(confirmed bool) bool {
	return !confirmed
}

// CanManageRoster reports whether the identity may create, import or
// delete roster students. Staff may search the roster but only admins
// change it.
func CanManageRoster(claims *models.JWTClaims) bool {
	return claims != nil && claims.Role == models.RoleAdmin
}

// CanManageEmployees reports whether the identity may provision or
// deactivate staff accounts.
func CanManageEmployees(claims *models.JWTClaims) bool {
	return claims != nil && claims.Role == models.RoleAdmin
}

// CanResetDay reports whether the identity may archive-and-clear
// today's queue.
func CanResetDay(claims *models.JWTClaims) bool {
	return claims != nil && claims.Role == models.RoleAdmin
}

// CanWipeData reports whether the identity may erase the tenant's data.
func CanWipeData(claims *models.JWTClaims) bool {
	return claims != nil && claims.Role == models.RoleAdmin
}
