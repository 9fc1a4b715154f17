// internal/models/seed.go
package models

// SeedRecords returns the ten synthetic customer records loaded by the seed
// operation. A fresh copy is built on every call.
func SeedRecords() []map[string]interface{} {
	return []map[string]interface{}{
		// ideal profile
		{"cust_id": "C1001", "full_name": "Rohan Sharma", "phone_number": "9876543210", "kyc_verified": true, "annual_income": 1200000, "existing_emis": 10000, "bureau_score": 780, "pre_approved_limit": 500000},
		// high risk
		{"cust_id": "C1002", "full_name": "Priya Singh", "phone_number": "9876543211", "kyc_verified": true, "annual_income": 600000, "existing_emis": 15000, "bureau_score": 620, "pre_approved_limit": 0},
		// borderline, high EMIs
		{"cust_id": "C1003", "full_name": "Amit Kumar", "phone_number": "9876543212", "kyc_verified": true, "annual_income": 1000000, "existing_emis": 45000, "bureau_score": 710, "pre_approved_limit": 100000},
		// KYC not verified
		{"cust_id": "C1004", "full_name": "Sunita Devi", "phone_number": "9876543213", "kyc_verified": false, "annual_income": 800000, "existing_emis": 5000, "bureau_score": 790, "pre_approved_limit": 200000},
		// new to credit: score 0
		{"cust_id": "C1005", "full_name": "Vikram Rathore", "phone_number": "9876543214", "kyc_verified": true, "annual_income": 2500000, "existing_emis": 0, "bureau_score": 0, "pre_approved_limit": 0},
		// low income
		{"cust_id": "C1006", "full_name": "Meena Kumari", "phone_number": "9876543215", "kyc_verified": true, "annual_income": 300000, "existing_emis": 1000, "bureau_score": 740, "pre_approved_limit": 0},
		{"cust_id": "C1007", "full_name": "David D'souza", "phone_number": "9876543216", "kyc_verified": true, "annual_income": 900000, "existing_emis": 8000, "bureau_score": 760, "pre_approved_limit": 150000},
		// high earner, high debt
		{"cust_id": "C1008", "full_name": "Ananya Reddy", "phone_number": "9876543217", "kyc_verified": true, "annual_income": 3000000, "existing_emis": 120000, "bureau_score": 720, "pre_approved_limit": 500000},
		// freelancer, lumpy income
		{"cust_id": "C1009", "full_name": "Siddharth Jain", "phone_number": "9876543218", "kyc_verified": true, "annual_income": 1500000, "existing_emis": 20000, "bureau_score": 750, "pre_approved_limit": 0},
		// pre-approved fast path
		{"cust_id": "C1010", "full_name": "Fatima Sheikh", "phone_number": "9876543219", "kyc_verified": true, "annual_income": 1800000, "existing_emis": 15000, "bureau_score": 810, "pre_approved_limit": 800000},
	}
}
