package auth

import "strings"

// Role 内置角色，与 users.role 对应
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Permission 内置权限，格式 resource:action[:scope]
type Permission string

const (
	PermUserViewAny   Permission = "user:view:any"
	PermUserBlock     Permission = "user:block"
	PermCascadeReplay Permission = "cascade:replay"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		"*",
	},
	RoleAdmin: {
		"user:view:*",
		"cascade:*",
	},
	RoleUser: {},
}

// Allow 判断一组角色是否包含所需权限，支持通配符
func Allow(roles []string, need Permission) bool {
	for _, p := range collectPermissions(roles) {
		if match(p, need) {
			return true
		}
	}
	return false
}

func collectPermissions(roles []string) []Permission {
	perms := make([]Permission, 0)
	for _, r := range roles {
		if ps, ok := RolePermissions[Role(r)]; ok {
			perms = append(perms, ps...)
		}
	}
	return perms
}

// match 逐段比较，"*" 匹配当前及之后的所有段
func match(have, need Permission) bool {
	if have == need || have == "*" {
		return true
	}

	haveParts := strings.Split(string(have), ":")
	needParts := strings.Split(string(need), ":")

	for i, part := range haveParts {
		if part == "*" {
			return true
		}
		if i >= len(needParts) || part != needParts[i] {
			return false
		}
	}
	return len(haveParts) == len(needParts)
}
